package domain

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMessageStatusHelpers(t *testing.T) {
	assert.True(t, Message{Status: StatusDelivered}.IsDelivered())
	assert.True(t, Message{Status: StatusFailed}.IsFailed())
	for _, s := range []MessageStatus{StatusQueued, StatusProcessing, StatusSent} {
		assert.True(t, Message{Status: s}.IsPending(), s)
	}
	assert.False(t, Message{Status: StatusDelivered}.IsPending())
	assert.Equal(t, "Message is queued for processing", Message{Status: StatusQueued}.StatusDescription())
	assert.Equal(t, "Unknown status", Message{Status: "??"}.StatusDescription())
	assert.Equal(t, "boom", Message{Error: &MessageError{Message: "boom"}}.ErrorMessage())
}

func TestMessageFilterQueryDefaults(t *testing.T) {
	q := MessageFilter{PartnerID: "prt_1"}.Query()
	assert.Equal(t, "20", q.Get("limit"))
	assert.Equal(t, "0", q.Get("offset"))
	assert.Equal(t, "prt_1", q.Get("partnerId"))

	f := ParseMessageFilter(q)
	assert.Equal(t, DefaultMessageLimit, f.Limit)
	assert.Equal(t, "prt_1", f.PartnerID)
}

func TestCertificateExpiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	in10 := now.Add(10 * 24 * time.Hour)
	c := Certificate{ExpiresAt: &in10}

	assert.False(t, c.IsExpired(now))
	assert.True(t, c.IsExpiringSoon(now, 30))
	assert.False(t, c.IsExpiringSoon(now, 5))
	assert.Equal(t, 10, c.DaysUntilExpiry(now))

	past := now.Add(-time.Hour)
	old := Certificate{ExpiresAt: &past}
	assert.True(t, old.IsExpired(now))
	assert.False(t, old.IsExpiringSoon(now, 30))

	assert.Equal(t, math.MaxInt, Certificate{}.DaysUntilExpiry(now))

	f := CertificateFilter{ExpiringWithin: 30}
	assert.True(t, f.Matches(c, now))
	assert.False(t, f.Matches(old, now))
}

func TestWebhookSubscribes(t *testing.T) {
	w := WebhookEndpoint{Events: []string{EventMessageDelivered}}
	assert.True(t, w.Subscribes(EventMessageDelivered))
	assert.False(t, w.Subscribes(EventMessageFailed))
	assert.True(t, WebhookEndpoint{Events: []string{"*"}}.Subscribes("anything"))
}
