package telegram

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := DefaultConfig("123:abc")
	cfg.APIURL = server.URL + "/"
	client, err := NewClient(cfg)
	require.NoError(t, err)
	return client
}

// formValues reads a Bot API request body, multipart or JSON, into strings
func formValues(t *testing.T, r *http.Request) map[string]string {
	t.Helper()
	values := map[string]string{}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch {
	case strings.HasPrefix(mediaType, "multipart/"):
		require.NoError(t, r.ParseMultipartForm(1<<20))
		for k, v := range r.MultipartForm.Value {
			values[k] = v[0]
		}
	case mediaType == "application/json":
		var raw map[string]json.RawMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		for k, v := range raw {
			var s string
			if json.Unmarshal(v, &s) == nil {
				values[k] = s
			} else {
				values[k] = string(v)
			}
		}
	default:
		require.NoError(t, r.ParseForm())
		for k, v := range r.PostForm {
			values[k] = v[0]
		}
	}
	return values
}

const photoResult = `{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":42,"type":"private"},"photo":[
	{"file_id":"s","file_unique_id":"small","width":90,"height":90},
	{"file_id":"l","file_unique_id":"large","width":320,"height":320}]}}`

func TestClient_SendMessage(t *testing.T) {
	var got map[string]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bot123:abc/sendMessage", r.URL.Path)
		got = formValues(t, r)
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":8,"date":0,"chat":{"id":42,"type":"private"}}}`))
	})

	err := client.SendMessage(context.Background(), 42, "hello", 5)
	require.NoError(t, err)
	assert.Equal(t, "42", got["chat_id"])
	assert.Equal(t, "hello", got["text"])
	assert.JSONEq(t, `{"message_id":5}`, got["reply_parameters"])
}

func TestClient_SendMessageWithoutReply(t *testing.T) {
	var got map[string]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = formValues(t, r)
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":9,"date":0,"chat":{"id":42,"type":"private"}}}`))
	})

	require.NoError(t, client.SendMessage(context.Background(), 42, "hi", 0))
	assert.NotContains(t, got, "reply_parameters")
}

func TestClient_SendPhotoByURL(t *testing.T) {
	var got map[string]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bot123:abc/sendPhoto", r.URL.Path)
		got = formValues(t, r)
		_, _ = w.Write([]byte(photoResult))
	})

	id, err := client.SendPhoto(context.Background(), 42, InputPhoto{URL: "https://example.com/faces/a.jpg"}, 3)
	require.NoError(t, err)
	assert.Equal(t, "large", id)
	assert.Equal(t, "https://example.com/faces/a.jpg", got["photo"])
}

func TestClient_SendPhotoUpload(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "42", r.FormValue("chat_id"))
		assert.JSONEq(t, `{"message_id":3}`, r.FormValue("reply_parameters"))

		file, header, err := r.FormFile("photo")
		require.NoError(t, err)
		defer file.Close()
		data, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, "a.jpg", header.Filename)
		assert.Equal(t, []byte("jpegbytes"), data)

		_, _ = w.Write([]byte(photoResult))
	})

	id, err := client.SendPhoto(context.Background(), 42, InputPhoto{Filename: "a.jpg", Data: []byte("jpegbytes")}, 3)
	require.NoError(t, err)
	assert.Equal(t, "large", id)
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{
			name:    "api error",
			status:  http.StatusBadRequest,
			body:    `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`,
			wantErr: ErrAPI,
		},
		{
			name:    "non json answer",
			status:  http.StatusBadGateway,
			body:    "<html>bad gateway</html>",
			wantErr: ErrAPI,
		},
		{
			name:    "photo without sizes",
			status:  http.StatusOK,
			body:    `{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":1,"type":"private"}}}`,
			wantErr: ErrNoPhoto,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.SendPhoto(context.Background(), 1, InputPhoto{URL: "https://example.com/u.jpg"}, 0)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestClient_SetWebhook(t *testing.T) {
	var got map[string]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bot123:abc/setWebhook", r.URL.Path)
		got = formValues(t, r)
		_, _ = w.Write([]byte(`{"ok":true,"result":true,"description":"Webhook was set"}`))
	})

	require.NoError(t, client.SetWebhook(context.Background(), "https://bot.example.com/webhook", "s3cret"))
	assert.Equal(t, "https://bot.example.com/webhook", got["url"])
	assert.Equal(t, "s3cret", got["secret_token"])
	assert.JSONEq(t, `["message"]`, got["allowed_updates"])
}

func TestMessage_LargestPhoto(t *testing.T) {
	var nilMsg *Message
	assert.Nil(t, nilMsg.LargestPhoto())
	assert.Nil(t, (&Message{}).LargestPhoto())

	msg := &Message{Photo: []PhotoSize{{FileUniqueID: "a"}, {FileUniqueID: "b"}}}
	assert.Equal(t, "b", msg.LargestPhoto().FileUniqueID)
}
