// Package handlers is the Lambda transport boundary. Each handler decodes
// its trigger event into a typed request, calls the matching service, and
// translates the result into the wire envelope.
//
// Conventions:
//   - Every payload-bearing response uses the {success, data|error} envelope.
//   - HTTP responses carry permissive CORS headers; routing, auth and
//     preflight live in API Gateway, not here.
//   - Handler boundaries are catch-alls: validation problems surface with
//     their message, unexpected failures are logged in full and surfaced as
//     a generic message that leaks nothing.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog/log"
)

// internalErrorMessage is the only text a caller sees for unexpected
// failures.
const internalErrorMessage = "Internal server error."

// Response is the {success, data|error} envelope shared by every handler.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// succeed wraps data in a success envelope.
func succeed(data any) Response {
	return Response{Success: true, Data: data}
}

// failure wraps an error message in a failure envelope.
func failure(msg string) Response {
	return Response{Success: false, Error: msg}
}

// corsHeaders are attached to every HTTP response. The API is consumed from
// browsers on other origins; fine-grained CORS policy belongs to the
// gateway.
func corsHeaders() map[string]string {
	return map[string]string{
		"Content-Type":                     "application/json",
		"Access-Control-Allow-Origin":      "*",
		"Access-Control-Allow-Credentials": "true",
	}
}

// apiResponse serializes body into an API Gateway proxy response with the
// given status and the standard headers.
func apiResponse(status int, body Response) events.APIGatewayProxyResponse {
	raw, err := json.Marshal(body)
	if err != nil {
		// The envelope is marshaled from plain structs; this cannot fail in
		// practice, but a broken response must still be well-formed JSON.
		log.Error().Err(err).Msg("response serialization failed")
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusInternalServerError,
			Headers:    corsHeaders(),
			Body:       `{"success":false,"error":"` + internalErrorMessage + `"}`,
		}
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    corsHeaders(),
		Body:       string(raw),
	}
}
