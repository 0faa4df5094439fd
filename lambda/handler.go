// Package lambda runs the bot behind an API Gateway webhook on AWS
// Lambda. One invocation handles one Telegram update; the host's
// invocation model provides the at-most-one-in-flight guarantee.
package lambda

import (
	"context"
	"encoding/json"
	"time"

	"github.com/aws/aws-lambda-go/events"
	awslambda "github.com/aws/aws-lambda-go/lambda"
	"github.com/charmbracelet/log"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"vox.town/telegram"
)

// replyMargin is shaved off the Lambda deadline so the final Telegram
// reply can be sent before the host terminates the invocation.
const replyMargin = 2 * time.Second

type Handler struct {
	ingress *telegram.Ingress
	logger  *log.Logger
}

func NewHandler(ingress *telegram.Ingress, logger *log.Logger) *Handler {
	return &Handler{ingress: ingress, logger: logger}
}

func Start(h *Handler) {
	awslambda.Start(h.Handle)
}

func (h *Handler) Handle(
	ctx context.Context,
	req events.APIGatewayProxyRequest,
) (events.APIGatewayProxyResponse, error) {
	// Direct invocation without a body is a liveness probe.
	if req.Body == "" {
		return jsonResponse(200, map[string]string{
			"status":  "ok",
			"message": "voxbot is running",
		}), nil
	}

	var update tgbotapi.Update
	if err := json.Unmarshal([]byte(req.Body), &update); err != nil {
		h.logger.Error("undecodable webhook payload", "error", err)
		return jsonResponse(400, map[string]string{"status": "error"}), nil
	}

	if deadline, ok := ctx.Deadline(); ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithDeadline(ctx, deadline.Add(-replyMargin))
		defer cancel()
	}

	h.ingress.HandleUpdate(ctx, update)

	// Always 200: Telegram redelivers on non-2xx, and a redelivered
	// event would just run the whole pipeline again.
	return jsonResponse(200, map[string]string{"status": "ok"}), nil
}

func jsonResponse(
	status int,
	body map[string]string,
) events.APIGatewayProxyResponse {
	encoded, _ := json.Marshal(body)
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(encoded),
	}
}
