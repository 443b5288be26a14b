package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryan-buckman/donorhub/internal/model"
)

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

// closeNotifier records NotifyClose receivers so a test can drop the
// connection or channel.
type closeNotifier struct {
	mu        sync.Mutex
	receivers []chan *amqp.Error
	closed    bool
}

func (n *closeNotifier) NotifyClose(receiver chan *amqp.Error) chan *amqp.Error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.receivers = append(n.receivers, receiver)
	return receiver
}

func (n *closeNotifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = true
	return nil
}

func (n *closeNotifier) watched() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.receivers) > 0
}

func (n *closeNotifier) isClosed() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.closed
}

// drop simulates the broker closing with err.
func (n *closeNotifier) drop(err *amqp.Error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, r := range n.receivers {
		r <- err
		close(r)
	}
	n.receivers = nil
}

type fakeConn struct {
	closeNotifier
}

type fakeChannel struct {
	closeNotifier
	mu   sync.Mutex
	sent []published
	err  error
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func newTestPublisher(ch channel) *RabbitMQPublisher {
	return &RabbitMQPublisher{channel: ch, exchange: "donorhub.events", done: make(chan struct{})}
}

// newReconnectingPublisher starts the reconnect loop over fakes. dial is
// used for every redial.
func newReconnectingPublisher(conn *fakeConn, ch *fakeChannel, dial dialFunc) *RabbitMQPublisher {
	p := &RabbitMQPublisher{
		conn:        conn,
		channel:     ch,
		exchange:    "donorhub.events",
		dial:        dial,
		redialDelay: time.Millisecond,
		done:        make(chan struct{}),
	}
	go p.handleReconnect(conn, ch)
	return p
}

func (p *RabbitMQPublisher) currentChannel() channel {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.channel
}

func TestPublishUrgentPosted(t *testing.T) {
	ch := &fakeChannel{}
	p := newTestPublisher(ch)

	req := model.UrgentRequest{ID: 2, BloodType: model.ONeg, Hospital: "Civil Hospital", Urgency: model.UrgencyHigh}
	require.NoError(t, p.UrgentPosted(context.Background(), req))

	require.Len(t, ch.sent, 1)
	got := ch.sent[0]
	assert.Equal(t, "donorhub.events", got.exchange)
	assert.Equal(t, KeyUrgentPosted, got.key)
	assert.Equal(t, amqp.Persistent, got.msg.DeliveryMode)
	assert.Equal(t, "application/json", got.msg.ContentType)

	var env struct {
		Type string              `json:"type"`
		Data model.UrgentRequest `json:"data"`
	}
	require.NoError(t, json.Unmarshal(got.msg.Body, &env))
	assert.Equal(t, KeyUrgentPosted, env.Type)
	assert.Equal(t, "Civil Hospital", env.Data.Hospital)
}

func TestDonorEventOmitsContactDetails(t *testing.T) {
	ch := &fakeChannel{}
	p := newTestPublisher(ch)

	donor := model.Donor{ID: "d-1", Email: "asha@example.org", Phone: "9876543210", BloodGroup: model.BPos, City: "Pune"}
	require.NoError(t, p.DonorRegistered(context.Background(), donor))

	require.Len(t, ch.sent, 1)
	body := string(ch.sent[0].msg.Body)
	assert.NotContains(t, body, "asha@example.org")
	assert.NotContains(t, body, "9876543210")
	assert.Contains(t, body, `"blood_group":"B+"`)
}

func TestAppointmentScheduled(t *testing.T) {
	ch := &fakeChannel{}
	p := newTestPublisher(ch)

	appt := model.Appointment{ID: "a-1", CampID: 3, BloodGroup: model.APos, PreferredTime: time.Date(2025, 5, 20, 11, 0, 0, 0, time.UTC), Relayed: true}
	camp := model.Camp{ID: 3, Title: "College Campus Blood Drive"}
	require.NoError(t, p.AppointmentScheduled(context.Background(), appt, camp))

	var env struct {
		Data AppointmentScheduledData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(ch.sent[0].msg.Body, &env))
	assert.Equal(t, "College Campus Blood Drive", env.Data.CampTitle)
	assert.True(t, env.Data.Relayed)
}

func TestPublishErrors(t *testing.T) {
	p := newTestPublisher(&fakeChannel{err: errors.New("channel closed")})
	assert.Error(t, p.UrgentPosted(context.Background(), model.UrgentRequest{}))

	closed := newTestPublisher(&fakeChannel{})
	require.NoError(t, closed.Close())
	require.NoError(t, closed.Close())
	assert.Error(t, closed.DonorRegistered(context.Background(), model.Donor{}))
}

func TestReconnectAfterChannelClose(t *testing.T) {
	conn, ch := &fakeConn{}, &fakeChannel{}
	nextConn, nextCh := &fakeConn{}, &fakeChannel{}
	p := newReconnectingPublisher(conn, ch, func() (connection, channel, error) {
		return nextConn, nextCh, nil
	})
	t.Cleanup(func() { p.Close() })

	require.Eventually(t, ch.watched, time.Second, time.Millisecond)
	ch.drop(&amqp.Error{Code: amqp.PreconditionFailed, Reason: "PRECONDITION_FAILED"})

	require.Eventually(t, func() bool { return p.currentChannel() == nextCh }, time.Second, time.Millisecond)
	assert.True(t, conn.isClosed(), "stale connection is released")

	require.NoError(t, p.UrgentPosted(context.Background(), model.UrgentRequest{ID: 1}))
	nextCh.mu.Lock()
	assert.Len(t, nextCh.sent, 1)
	nextCh.mu.Unlock()
}

func TestReconnectAfterConnectionClose(t *testing.T) {
	conn, ch := &fakeConn{}, &fakeChannel{}
	nextConn, nextCh := &fakeConn{}, &fakeChannel{}
	p := newReconnectingPublisher(conn, ch, func() (connection, channel, error) {
		return nextConn, nextCh, nil
	})
	t.Cleanup(func() { p.Close() })

	require.Eventually(t, conn.watched, time.Second, time.Millisecond)
	conn.drop(&amqp.Error{Code: amqp.ConnectionForced, Reason: "CONNECTION_FORCED"})

	require.Eventually(t, func() bool { return p.currentChannel() == nextCh }, time.Second, time.Millisecond)
	require.Eventually(t, nextConn.watched, time.Second, time.Millisecond)
}

func TestCloseDuringRedialReleasesNewConnection(t *testing.T) {
	conn, ch := &fakeConn{}, &fakeChannel{}
	lateConn, lateCh := &fakeConn{}, &fakeChannel{}
	dialing := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	p := newReconnectingPublisher(conn, ch, func() (connection, channel, error) {
		once.Do(func() { close(dialing) })
		<-release
		return lateConn, lateCh, nil
	})

	require.Eventually(t, conn.watched, time.Second, time.Millisecond)
	conn.drop(&amqp.Error{Code: amqp.ConnectionForced, Reason: "CONNECTION_FORCED"})

	<-dialing
	require.NoError(t, p.Close())
	close(release)

	require.Eventually(t, func() bool { return lateConn.isClosed() && lateCh.isClosed() }, time.Second, time.Millisecond)
	assert.Nil(t, p.currentChannel())
	p.mu.RLock()
	assert.Nil(t, p.conn)
	p.mu.RUnlock()
}

func TestNoop(t *testing.T) {
	var p Publisher = Noop{}
	assert.NoError(t, p.UrgentPosted(context.Background(), model.UrgentRequest{}))
	assert.NoError(t, p.DonorRegistered(context.Background(), model.Donor{}))
	assert.NoError(t, p.AppointmentScheduled(context.Background(), model.Appointment{}, model.Camp{}))
	assert.NoError(t, p.Close())
}
