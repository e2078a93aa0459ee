package telegram_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	domainTelegram "deadline_bot/internal/domain/telegram"
	"deadline_bot/internal/infra/telegram"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "123456:TEST-token"

type apiCall struct {
	method string
	chatID string
	text   string
	photo  []byte
}

type fakeAPI struct {
	mu     sync.Mutex
	calls  []apiCall
	failed bool
}

func (f *fakeAPI) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		prefix := "/bot" + testToken + "/"
		if !strings.HasPrefix(r.URL.Path, prefix) {
			t.Errorf("unexpected path %q", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		call := apiCall{method: strings.TrimPrefix(r.URL.Path, prefix)}

		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				t.Errorf("parse multipart: %v", err)
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			call.chatID = r.FormValue("chat_id")
			// telebot uploads disk files without a filename, so the part arrives as a form value.
			if file, _, err := r.FormFile("photo"); err == nil {
				call.photo, _ = io.ReadAll(file)
				file.Close()
			} else if values := r.MultipartForm.Value["photo"]; len(values) > 0 {
				call.photo = []byte(values[0])
			}
		} else {
			var params map[string]any
			if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
				t.Errorf("decode params: %v", err)
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			call.chatID, _ = params["chat_id"].(string)
			call.text, _ = params["text"].(string)
		}

		f.mu.Lock()
		f.calls = append(f.calls, call)
		failed := f.failed
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if failed {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`)
			return
		}

		msg := `{"message_id":1,"date":1610000000,"chat":{"id":-1001,"type":"channel"}`
		if call.method == "sendPhoto" {
			msg += `,"photo":[{"file_id":"AgAD","file_unique_id":"u1","width":640,"height":480}]`
		} else {
			msg += `,"text":"ok"`
		}
		_, _ = io.WriteString(w, `{"ok":true,"result":`+msg+`}}`)
	}
}

func (f *fakeAPI) Calls() []apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]apiCall(nil), f.calls...)
}

func newAdapter(t *testing.T, api *fakeAPI, chatID string) *telegram.TelebotAdapter {
	t.Helper()
	srv := httptest.NewServer(api.handler(t))
	t.Cleanup(srv.Close)

	bot, err := telegram.NewBot(testToken, srv.URL, 5*time.Second)
	require.NoError(t, err)
	return telegram.NewTelebotAdapter(bot, chatID)
}

func TestTelebotAdapter_SendText(t *testing.T) {
	api := &fakeAPI{}
	adapter := newAdapter(t, api, "-1001")

	require.NoError(t, adapter.SendText("Progress update for 2021-01-10\n\nCurrent pages: 20\n"))

	calls := api.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "sendMessage", calls[0].method)
	assert.Equal(t, "-1001", calls[0].chatID)
	assert.Equal(t, "Progress update for 2021-01-10\n\nCurrent pages: 20\n", calls[0].text)
}

func TestTelebotAdapter_SendImage(t *testing.T) {
	api := &fakeAPI{}
	adapter := newAdapter(t, api, "@thesis_channel")

	path := filepath.Join(t.TempDir(), "chart.png")
	require.NoError(t, os.WriteFile(path, []byte("\x89PNG fake"), 0o600))

	require.NoError(t, adapter.SendImage(path))

	calls := api.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "sendPhoto", calls[0].method)
	assert.Equal(t, "@thesis_channel", calls[0].chatID)
	assert.Equal(t, []byte("\x89PNG fake"), calls[0].photo)
}

func TestTelebotAdapter_APIErrorIsDeliveryError(t *testing.T) {
	api := &fakeAPI{failed: true}
	adapter := newAdapter(t, api, "42")

	err := adapter.SendText("hello")
	require.ErrorIs(t, err, domainTelegram.ErrDelivery)
}

func TestTelebotAdapter_NetworkErrorIsDeliveryError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	bot, err := telegram.NewBot(testToken, url, time.Second)
	require.NoError(t, err)
	adapter := telegram.NewTelebotAdapter(bot, "42")

	require.ErrorIs(t, adapter.SendText("hello"), domainTelegram.ErrDelivery)
}

func TestTelebotAdapter_MissingImageIsDeliveryError(t *testing.T) {
	api := &fakeAPI{}
	adapter := newAdapter(t, api, "42")

	err := adapter.SendImage(filepath.Join(t.TempDir(), "missing.png"))
	require.ErrorIs(t, err, domainTelegram.ErrDelivery)
	assert.Empty(t, api.Calls())
}
