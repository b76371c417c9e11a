package main

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEvent(body string, b64 bool) events.APIGatewayV2HTTPRequest {
	if b64 {
		body = base64.StdEncoding.EncodeToString([]byte(body))
	}
	return events.APIGatewayV2HTTPRequest{
		RawPath: "/synthesize",
		Headers: map[string]string{
			"Content-Type": "application/json",
			"Origin":       "https://forecast.example.com",
		},
		RequestContext: events.APIGatewayV2HTTPRequestContext{
			HTTP: events.APIGatewayV2HTTPRequestContextHTTPDescription{
				Method:   http.MethodPost,
				SourceIP: "203.0.113.7",
			},
		},
		Body:            body,
		IsBase64Encoded: b64,
	}
}

func TestLambdaEventToRequest(t *testing.T) {
	req, err := lambdaEventToRequest(context.Background(), sampleEvent(`{"input":{}}`, false))
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/synthesize", req.URL.Path)
	assert.Equal(t, "https://forecast.example.com", req.Header.Get("Origin"))
	assert.Equal(t, "203.0.113.7", req.Header.Get("X-Forwarded-For"))

	body, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	assert.Equal(t, `{"input":{}}`, string(body))
}

func TestLambdaEventToRequestDecodesBase64(t *testing.T) {
	req, err := lambdaEventToRequest(context.Background(), sampleEvent(`{"a":1}`, true))
	require.NoError(t, err)

	body, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(body))
}

func TestLambdaHandlerRoundTrip(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte(`{"ok":true}`))
	})

	resp, err := newLambdaHandler(h)(context.Background(), sampleEvent("", false))
	require.NoError(t, err)

	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Headers["Content-Type"])
	assert.True(t, resp.IsBase64Encoded)

	decoded, err := base64.StdEncoding.DecodeString(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, string(decoded))
}
