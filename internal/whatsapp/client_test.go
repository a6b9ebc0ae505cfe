package whatsapp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tramita_backend/platform/logger"
)

type stubConfig struct {
	url      string
	key      string
	deviceID string
}

func (c stubConfig) GetWhatsAppURL() string      { return c.url }
func (c stubConfig) GetWhatsAppKey() string      { return c.key }
func (c stubConfig) GetWhatsAppDeviceID() string { return c.deviceID }

func TestNewClientUnconfigured(t *testing.T) {
	c := NewClient(stubConfig{}, logger.New("development"))
	if c != nil {
		t.Fatal("expected nil client without a gateway url")
	}
	if err := c.SendMessage(context.Background(), "+5511999990000", "oi"); err == nil {
		t.Fatal("send through an unconfigured client must fail, not succeed silently")
	}
}

func TestSendMessage(t *testing.T) {
	var got sendRequest
	var auth, device string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/send/message" {
			t.Fatalf("path = %s", r.URL.Path)
		}
		auth = r.Header.Get("Authorization")
		device = r.Header.Get("X-Device-Id")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(stubConfig{url: srv.URL, key: "admin:secret", deviceID: "dev-1"}, logger.New("development"))
	if err := c.SendMessage(context.Background(), "+55 11 99999-0000", "Olá!"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	want := "Basic " + base64.StdEncoding.EncodeToString([]byte("admin:secret"))
	if auth != want {
		t.Fatalf("auth header = %q", auth)
	}
	if device != "dev-1" {
		t.Fatalf("device header = %q", device)
	}
	if strings.HasPrefix(got.Phone, "+") {
		t.Fatalf("gateway phone must not carry the plus: %q", got.Phone)
	}
	if got.Phone != "5511999990000" {
		t.Fatalf("phone = %q", got.Phone)
	}
	if got.Message != "Olá!" {
		t.Fatalf("message = %q", got.Message)
	}
}

func TestSendMessageGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "device disconnected", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(stubConfig{url: srv.URL}, logger.New("development"))
	err := c.SendMessage(context.Background(), "+5511999990000", "oi")
	if err == nil || !strings.Contains(err.Error(), "502") {
		t.Fatalf("expected gateway status error, got %v", err)
	}
}
