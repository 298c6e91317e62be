package email

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComposeQuoteAccepted(t *testing.T) {
	msg, err := composeQuoteAccepted("Asha", "Fix kitchen sink", 150050, "kes", "https://app.example.com/chats/c1")
	require.NoError(t, err)

	assert.Equal(t, `Your quote for "Fix kitchen sink" was accepted`, msg.subject)
	assert.Contains(t, msg.html, "KES 1500.50")
	assert.Contains(t, msg.html, "Hi Asha,")
	assert.Contains(t, msg.html, `href="https://app.example.com/chats/c1"`)
}

func TestComposeReviewReceivedEscapesComment(t *testing.T) {
	msg, err := composeReviewReceived("Asha", "Paint fence", 4.666, "<script>alert(1)</script>")
	require.NoError(t, err)

	assert.Contains(t, msg.html, "4.7 / 5")
	assert.NotContains(t, msg.html, "<script>")
	assert.Contains(t, msg.html, "&lt;script&gt;")
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "USD 0.05", formatAmount(5, "usd"))
	assert.Equal(t, "-EUR 12.00", formatAmount(-1200, "EUR"))
}

func TestBrevoSenderPostsMessage(t *testing.T) {
	var got brevoEmailRequest
	var apiKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey = r.Header.Get("api-key")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	b := NewBrevoSender("key-1", "noreply@example.com", "Kazi")
	b.endpoint = srv.URL

	err := b.SendReviewReceivedEmail(context.Background(), "pro@example.com", "Asha", "Paint fence", 4.5, "Great")
	require.NoError(t, err)

	assert.Equal(t, "key-1", apiKey)
	assert.Equal(t, "Kazi", got.Sender.Name)
	require.Len(t, got.To, 1)
	assert.Equal(t, "pro@example.com", got.To[0].Email)
	assert.Equal(t, `New review for "Paint fence"`, got.Subject)
}

func TestBrevoSenderReportsRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"invalid_parameter"}`))
	}))
	defer srv.Close()

	b := NewBrevoSender("key-1", "noreply@example.com", "Kazi")
	b.endpoint = srv.URL

	err := b.SendQuoteAcceptedEmail(context.Background(), "pro@example.com", "Asha", "Job", 100, "USD", "")
	require.ErrorContains(t, err, "status 400")
}
