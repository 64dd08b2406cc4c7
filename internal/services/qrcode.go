package services

import (
	"context"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

const qrImageSize = 256

// GenerateConnectQR renders the doctor's connect URL as a QR PNG,
// uploads it, and returns the hosted image URL. Patients scan this code
// to start treatment with the doctor.
func GenerateConnectQR(ctx context.Context, uploads *CloudinaryService, host, chatLink, doctorID string) (string, error) {
	connectURL := fmt.Sprintf("%s/api/connect/%s", host, chatLink)

	png, err := qrcode.Encode(connectURL, qrcode.Medium, qrImageSize)
	if err != nil {
		return "", fmt.Errorf("failed to encode QR code: %w", err)
	}

	url, err := uploads.UploadBytes(ctx, png, "doctor_qrcodes", doctorID+"-qr")
	if err != nil {
		return "", err
	}
	return url, nil
}
