package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/medibridge/medibridge-backend/internal/models"
)

// memStore is an in-memory MessageStore with the same monotonic status
// rule the Mongo filter enforces.
type memStore struct {
	mu    sync.Mutex
	msgs  map[primitive.ObjectID]*models.Chat
	order []primitive.ObjectID
	seq   int
}

func newMemStore() *memStore {
	return &memStore{msgs: make(map[primitive.ObjectID]*models.Chat)}
}

func (s *memStore) Insert(ctx context.Context, msg *models.Chat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg.ID.IsZero() {
		msg.ID = primitive.NewObjectID()
	}
	s.seq++
	// Distinct timestamps keep Conversation ordering deterministic.
	msg.CreatedAt = time.Unix(int64(s.seq), 0).UTC()
	msg.UpdatedAt = msg.CreatedAt
	if msg.Status == "" {
		msg.Status = models.StatusSent
	}
	stored := *msg
	s.msgs[msg.ID] = &stored
	s.order = append(s.order, msg.ID)
	return nil
}

func (s *memStore) Get(ctx context.Context, id primitive.ObjectID) (*models.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.msgs[id]
	if !ok {
		return nil, ErrMessageNotFound
	}
	clone := *msg
	return &clone, nil
}

func (s *memStore) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.ChatStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.msgs[id]
	if !ok {
		return nil
	}
	for _, pred := range statusPredecessors[status] {
		if msg.Status == pred {
			msg.Status = status
			msg.UpdatedAt = time.Now().UTC()
			break
		}
	}
	return nil
}

func (s *memStore) Conversation(ctx context.Context, a, b primitive.ObjectID) ([]models.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Chat
	for _, id := range s.order {
		msg := s.msgs[id]
		if (msg.From == a && msg.To == b) || (msg.From == b && msg.To == a) {
			out = append(out, *msg)
		}
	}
	return out, nil
}

// fakeResolver resolves from a fixed identity set.
type fakeResolver struct {
	identities map[primitive.ObjectID]*Identity
}

func (r *fakeResolver) Resolve(ctx context.Context, id primitive.ObjectID) (*Identity, error) {
	if ident, ok := r.identities[id]; ok {
		return ident, nil
	}
	return nil, ErrIdentityNotFound
}

// fakeScheduler records appointment writes.
type fakeScheduler struct {
	mu    sync.Mutex
	calls []ScheduleAppointmentIn
}

func (s *fakeScheduler) Schedule(ctx context.Context, doctorID, patientID primitive.ObjectID, date, timeOfDay string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, ScheduleAppointmentIn{
		DoctorID:  doctorID.Hex(),
		PatientID: patientID.Hex(),
		Date:      date,
		Time:      timeOfDay,
	})
	return nil
}

type gatewayFixture struct {
	gateway   *Gateway
	store     *memStore
	scheduler *fakeScheduler
	doctorID  primitive.ObjectID
	patientID primitive.ObjectID
}

func newGatewayFixture() *gatewayFixture {
	doctorID := primitive.NewObjectID()
	patientID := primitive.NewObjectID()

	resolver := &fakeResolver{identities: map[primitive.ObjectID]*Identity{
		doctorID:  {ID: doctorID, FullName: "Dr. Asha Rao", Role: "doctor"},
		patientID: {ID: patientID, FullName: "Ravi Kumar", Role: "patient"},
	}}

	store := newMemStore()
	scheduler := &fakeScheduler{}
	return &gatewayFixture{
		gateway:   NewGateway(NewPresenceRegistry(), resolver, store, scheduler),
		store:     store,
		scheduler: scheduler,
		doctorID:  doctorID,
		patientID: patientID,
	}
}

func lastPrivateMessage(t *testing.T, c *fakeConn) *PrivateMessageOut {
	t.Helper()
	events := c.eventsNamed(EventPrivateMessage)
	require.NotEmpty(t, events)
	return events[len(events)-1].Data.(*PrivateMessageOut)
}

func TestMessageToOnlineRecipientIsDelivered(t *testing.T) {
	req := require.New(t)
	f := newGatewayFixture()
	ctx := context.Background()

	doctorConn := &fakeConn{}
	patientConn := &fakeConn{}
	f.gateway.HandleRegister(doctorConn, RegisterIn{UserID: f.doctorID.Hex(), Role: "doctor"})
	f.gateway.HandleRegister(patientConn, RegisterIn{UserID: f.patientID.Hex(), Role: "patient"})

	f.gateway.HandlePrivateMessage(ctx, doctorConn, PrivateMessageIn{
		From: f.doctorID.Hex(),
		To:   f.patientID.Hex(),
		Msg:  "how are you feeling today?",
	})

	// Exactly one persisted message, ultimately delivered.
	msgs, err := f.store.Conversation(ctx, f.doctorID, f.patientID)
	req.NoError(err)
	req.Len(msgs, 1)
	req.Equal(models.StatusDelivered, msgs[0].Status)
	req.Equal(models.KindText, msgs[0].Type)

	// Both ends received a push with the same id and status.
	toPatient := lastPrivateMessage(t, patientConn)
	toSender := lastPrivateMessage(t, doctorConn)
	req.Equal(msgs[0].ID.Hex(), toPatient.ID)
	req.Equal(toPatient.ID, toSender.ID)
	req.Equal(models.StatusDelivered, toPatient.Status)
	req.Equal(models.StatusDelivered, toSender.Status)
	req.Equal("Dr. Asha Rao", toPatient.FromUser.FullName)
	req.Equal("doctor", toPatient.FromUser.Role)
}

func TestMessageToOfflineRecipientStaysSent(t *testing.T) {
	req := require.New(t)
	f := newGatewayFixture()
	ctx := context.Background()

	doctorConn := &fakeConn{}
	f.gateway.HandleRegister(doctorConn, RegisterIn{UserID: f.doctorID.Hex(), Role: "doctor"})

	f.gateway.HandlePrivateMessage(ctx, doctorConn, PrivateMessageIn{
		From: f.doctorID.Hex(),
		To:   f.patientID.Hex(),
		Msg:  "take medicine at 8pm",
	})

	msgs, err := f.store.Conversation(ctx, f.doctorID, f.patientID)
	req.NoError(err)
	req.Len(msgs, 1)
	req.Equal(models.StatusSent, msgs[0].Status)
	req.Equal("take medicine at 8pm", msgs[0].Msg)

	// The sender's echo carries status "sent".
	echo := lastPrivateMessage(t, doctorConn)
	req.Equal(models.StatusSent, echo.Status)
}

func TestMediaReferenceMakesMessageAnImage(t *testing.T) {
	req := require.New(t)
	f := newGatewayFixture()
	ctx := context.Background()

	f.gateway.SendMessage(ctx, PrivateMessageIn{
		From:     f.patientID.Hex(),
		To:       f.doctorID.Hex(),
		Msg:      "this text rides along",
		MediaURL: "https://cdn.example.com/rash.jpg",
		Caption:  "rash on forearm",
	})

	msgs, err := f.store.Conversation(ctx, f.doctorID, f.patientID)
	req.NoError(err)
	req.Len(msgs, 1)
	req.Equal(models.KindImage, msgs[0].Type)
	req.Equal("rash on forearm", msgs[0].Caption)
}

func TestUnresolvedPartyDropsMessage(t *testing.T) {
	req := require.New(t)
	f := newGatewayFixture()
	ctx := context.Background()

	doctorConn := &fakeConn{}
	f.gateway.HandleRegister(doctorConn, RegisterIn{UserID: f.doctorID.Hex(), Role: "doctor"})

	f.gateway.HandlePrivateMessage(ctx, doctorConn, PrivateMessageIn{
		From: f.doctorID.Hex(),
		To:   primitive.NewObjectID().Hex(), // nobody
		Msg:  "hello?",
	})

	msgs, err := f.store.Conversation(ctx, f.doctorID, f.patientID)
	req.NoError(err)
	req.Empty(msgs)
	req.Empty(doctorConn.eventsNamed(EventPrivateMessage))
}

func TestReadReceiptNotifiesOnlineSender(t *testing.T) {
	req := require.New(t)
	f := newGatewayFixture()
	ctx := context.Background()

	doctorConn := &fakeConn{}
	f.gateway.HandleRegister(doctorConn, RegisterIn{UserID: f.doctorID.Hex(), Role: "doctor"})

	// Patient is offline at send time.
	f.gateway.HandlePrivateMessage(ctx, doctorConn, PrivateMessageIn{
		From: f.doctorID.Hex(),
		To:   f.patientID.Hex(),
		Msg:  "take medicine at 8pm",
	})
	msgs, _ := f.store.Conversation(ctx, f.doctorID, f.patientID)
	req.Equal(models.StatusSent, msgs[0].Status)

	// Patient connects later and acknowledges the message.
	patientConn := &fakeConn{}
	f.gateway.HandleRegister(patientConn, RegisterIn{UserID: f.patientID.Hex(), Role: "patient"})
	f.gateway.HandleReadMessage(ctx, ReadMessageIn{MessageID: msgs[0].ID.Hex()})

	stored, err := f.store.Get(ctx, msgs[0].ID)
	req.NoError(err)
	req.Equal(models.StatusRead, stored.Status)

	reads := doctorConn.eventsNamed(EventMessageRead)
	req.Len(reads, 1)
	req.Equal(msgs[0].ID.Hex(), reads[0].Data.(MessageReadPayload).MessageID)
}

func TestReadReceiptIsIdempotent(t *testing.T) {
	req := require.New(t)
	f := newGatewayFixture()
	ctx := context.Background()

	f.gateway.SendMessage(ctx, PrivateMessageIn{
		From: f.doctorID.Hex(),
		To:   f.patientID.Hex(),
		Msg:  "hello",
	})
	msgs, _ := f.store.Conversation(ctx, f.doctorID, f.patientID)

	f.gateway.HandleReadMessage(ctx, ReadMessageIn{MessageID: msgs[0].ID.Hex()})
	f.gateway.HandleReadMessage(ctx, ReadMessageIn{MessageID: msgs[0].ID.Hex()})

	stored, err := f.store.Get(ctx, msgs[0].ID)
	req.NoError(err)
	req.Equal(models.StatusRead, stored.Status)
}

func TestReadReceiptUnknownMessageIsSilent(t *testing.T) {
	f := newGatewayFixture()
	f.gateway.HandleReadMessage(context.Background(), ReadMessageIn{MessageID: primitive.NewObjectID().Hex()})
	f.gateway.HandleReadMessage(context.Background(), ReadMessageIn{MessageID: "not-a-hex-id"})
}

func TestRegisterWithMissingFieldsIsIgnored(t *testing.T) {
	req := require.New(t)
	f := newGatewayFixture()

	conn := &fakeConn{}
	f.gateway.HandleRegister(conn, RegisterIn{UserID: "", Role: "doctor"})
	f.gateway.HandleRegister(conn, RegisterIn{UserID: f.doctorID.Hex(), Role: ""})

	req.Empty(f.gateway.Presence.OnlineIDs())
	req.Empty(conn.events)
}

func TestMessagesArePersistedInSendOrder(t *testing.T) {
	req := require.New(t)
	f := newGatewayFixture()
	ctx := context.Background()

	patientConn := &fakeConn{}
	f.gateway.HandleRegister(patientConn, RegisterIn{UserID: f.patientID.Hex(), Role: "patient"})

	f.gateway.SendMessage(ctx, PrivateMessageIn{From: f.doctorID.Hex(), To: f.patientID.Hex(), Msg: "first"})
	f.gateway.SendMessage(ctx, PrivateMessageIn{From: f.doctorID.Hex(), To: f.patientID.Hex(), Msg: "second"})

	msgs, err := f.store.Conversation(ctx, f.doctorID, f.patientID)
	req.NoError(err)
	req.Len(msgs, 2)
	req.Equal("first", msgs[0].Msg)
	req.Equal("second", msgs[1].Msg)

	pushes := patientConn.eventsNamed(EventPrivateMessage)
	req.Len(pushes, 2)
	req.Equal("first", pushes[0].Data.(*PrivateMessageOut).Msg)
	req.Equal("second", pushes[1].Data.(*PrivateMessageOut).Msg)
}

func TestScheduleAppointmentWritesBothSides(t *testing.T) {
	req := require.New(t)
	f := newGatewayFixture()

	f.gateway.HandleScheduleAppointment(context.Background(), ScheduleAppointmentIn{
		DoctorID:  f.doctorID.Hex(),
		PatientID: f.patientID.Hex(),
		Date:      "2025-05-23",
		Time:      "14:30",
	})

	req.Len(f.scheduler.calls, 1)
	req.Equal(f.doctorID.Hex(), f.scheduler.calls[0].DoctorID)
	req.Equal(f.patientID.Hex(), f.scheduler.calls[0].PatientID)
	req.Equal("2025-05-23", f.scheduler.calls[0].Date)
	req.Equal("14:30", f.scheduler.calls[0].Time)
}

func TestScheduleAppointmentRejectsMalformedInput(t *testing.T) {
	req := require.New(t)
	f := newGatewayFixture()

	f.gateway.HandleScheduleAppointment(context.Background(), ScheduleAppointmentIn{
		DoctorID:  "nope",
		PatientID: f.patientID.Hex(),
		Date:      "2025-05-23",
		Time:      "14:30",
	})
	f.gateway.HandleScheduleAppointment(context.Background(), ScheduleAppointmentIn{
		DoctorID:  f.doctorID.Hex(),
		PatientID: f.patientID.Hex(),
		Date:      "",
		Time:      "14:30",
	})

	req.Empty(f.scheduler.calls)
}
