package lambda

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/charmbracelet/log"
)

func TestDirectInvocationLiveness(t *testing.T) {
	h := NewHandler(nil, log.New(io.Discard))

	resp, err := h.Handle(context.Background(), events.APIGatewayProxyRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(resp.Body, `"status":"ok"`) {
		t.Errorf("body = %q", resp.Body)
	}
}

func TestUndecodablePayload(t *testing.T) {
	h := NewHandler(nil, log.New(io.Discard))

	resp, err := h.Handle(context.Background(), events.APIGatewayProxyRequest{
		Body: "not json at all",
	})
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 400 {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}
