// Package larktest runs an in-process imitation of the Open Platform
// endpoints used by the bot package, so the real SDK client can be
// exercised end to end in tests.
package larktest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
)

// Route names accepted by Fail.
const (
	RouteUsers     = "users"
	RouteChats     = "chats"
	RouteMembers   = "members"
	RouteMessages  = "messages"
	RouteUpload    = "upload image"
	RouteImage     = "image"
	RouteFileUp    = "upload file"
	RouteFile      = "file"
	RouteResources = "message resource"
)

const TenantToken = "t-larktest0000000000000000"

type User struct {
	OpenID   string
	Email    string
	Mobile   string
	Resigned bool
}

type Chat struct {
	ChatID string `json:"chat_id"`
	Name   string `json:"name"`
	Owner  string `json:"owner_id"`
}

type Member struct {
	OpenID string `json:"member_id"`
	Name   string `json:"name"`
}

// Message is a message create request as received by the server.
type Message struct {
	ReceiveIDType string
	ReceiveID     string `json:"receive_id"`
	MsgType       string `json:"msg_type"`
	Content       string `json:"content"`
	UUID          string `json:"uuid"`
}

type File struct {
	Name string
	Type string
	Data []byte
}

type failure struct {
	code int
	msg  string
}

// Server is safe for concurrent use. Seed it with the Add* methods before
// pointing a client at URL.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	users     []User
	chats     []Chat
	members   map[string][]Member
	messages  []Message
	images    map[string][]byte
	files     map[string]File
	resources map[string]File
	failures  map[string]failure
	requests  int
}

func NewServer() *Server {
	s := &Server{
		members:   make(map[string][]Member),
		images:    make(map[string][]byte),
		files:     make(map[string]File),
		resources: make(map[string]File),
		failures:  make(map[string]failure),
	}

	r := chi.NewRouter()
	r.Post("/open-apis/auth/v3/tenant_access_token/internal", s.tenantToken)
	r.Post("/open-apis/auth/v3/app_access_token/internal", s.tenantToken)
	r.Post("/open-apis/contact/v3/users/batch_get_id", s.handle(RouteUsers, s.batchGetID))
	r.Get("/open-apis/im/v1/chats", s.handle(RouteChats, s.listChats))
	r.Get("/open-apis/im/v1/chats/{chatID}/members", s.handle(RouteMembers, s.listMembers))
	r.Post("/open-apis/im/v1/messages", s.handle(RouteMessages, s.createMessage))
	r.Get("/open-apis/im/v1/messages/{messageID}/resources/{key}", s.handle(RouteResources, s.getResource))
	r.Post("/open-apis/im/v1/images", s.handle(RouteUpload, s.createImage))
	r.Get("/open-apis/im/v1/images/{key}", s.handle(RouteImage, s.getImage))
	r.Post("/open-apis/im/v1/files", s.handle(RouteFileUp, s.createFile))
	r.Get("/open-apis/im/v1/files/{key}", s.handle(RouteFile, s.getFile))

	s.Server = httptest.NewServer(r)
	return s
}

func (s *Server) AddUser(u User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = append(s.users, u)
}

func (s *Server) AddChat(c Chat, members ...Member) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chats = append(s.chats, c)
	s.members[c.ChatID] = append(s.members[c.ChatID], members...)
}

// AddMessageResource makes a resource attached to messageID downloadable.
func (s *Server) AddMessageResource(messageID, key string, f File) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resources[messageID+"/"+key] = f
}

// Fail makes every later request to route answer with the given error code.
func (s *Server) Fail(route string, code int, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = failure{code: code, msg: msg}
}

func (s *Server) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.messages...)
}

func (s *Server) Image(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.images[key]
	return data, ok
}

func (s *Server) File(key string) (File, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[key]
	return f, ok
}

// LastRequestID is the request ID attached to the most recent API response.
func (s *Server) LastRequestID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return requestID(s.requests)
}

func requestID(n int) string {
	return fmt.Sprintf("larktest-req-%d", n)
}

func (s *Server) handle(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests++
		id := requestID(s.requests)
		fail, failing := s.failures[route]
		s.mu.Unlock()

		w.Header().Set("X-Tt-Logid", id)
		w.Header().Set("X-Request-Id", id)

		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer t-") {
			writeError(w, 99991663, "invalid access token")
			return
		}
		if failing {
			writeError(w, fail.code, fail.msg)
			return
		}
		h(w, r)
	}
}

func writeJSON(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(body)
}

// writeError answers with a non-2xx status so that download endpoints,
// which treat any 200 response as file content, still surface the code.
func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(map[string]any{"code": code, "msg": msg})
}

func ok(w http.ResponseWriter, data any) {
	writeJSON(w, map[string]any{"code": 0, "msg": "success", "data": data})
}

func (s *Server) tenantToken(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"code":                0,
		"msg":                 "ok",
		"tenant_access_token": TenantToken,
		"app_access_token":    "a-larktest0000000000000000",
		"expire":              7200,
	})
}

func (s *Server) batchGetID(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Emails          []string `json:"emails"`
		Mobiles         []string `json:"mobiles"`
		IncludeResigned bool     `json:"include_resigned"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, 99992402, "field validation failed")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lookup := func(match func(User) bool) (User, bool) {
		for _, u := range s.users {
			if match(u) && (body.IncludeResigned || !u.Resigned) {
				return u, true
			}
		}
		return User{}, false
	}
	entry := func(u User, found bool, key, value string) map[string]any {
		e := map[string]any{key: value}
		if found {
			e["user_id"] = u.OpenID
			e["status"] = map[string]any{
				"is_resigned":  u.Resigned,
				"is_activated": !u.Resigned,
				"is_frozen":    false,
			}
		}
		return e
	}

	list := []map[string]any{}
	for _, email := range body.Emails {
		u, found := lookup(func(u User) bool { return u.Email == email })
		list = append(list, entry(u, found, "email", email))
	}
	for _, mobile := range body.Mobiles {
		u, found := lookup(func(u User) bool { return u.Mobile == mobile })
		list = append(list, entry(u, found, "mobile", mobile))
	}
	ok(w, map[string]any{"user_list": list})
}

// page slices n items according to the page_size and page_token query
// parameters. The page token is the decimal offset of the next item.
func page(r *http.Request, n int) (start, end int, next string) {
	size, err := strconv.Atoi(r.URL.Query().Get("page_size"))
	if err != nil || size <= 0 {
		size = 20
	}
	if tok := r.URL.Query().Get("page_token"); tok != "" {
		start, _ = strconv.Atoi(tok)
	}
	if start > n {
		start = n
	}
	end = start + size
	if end >= n {
		return start, n, ""
	}
	return start, end, strconv.Itoa(end)
}

func (s *Server) listChats(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start, end, next := page(r, len(s.chats))
	items := make([]map[string]any, 0, end-start)
	for _, c := range s.chats[start:end] {
		items = append(items, map[string]any{
			"chat_id":       c.ChatID,
			"name":          c.Name,
			"owner_id":      c.Owner,
			"owner_id_type": "open_id",
			"external":      false,
			"chat_status":   "normal",
		})
	}
	ok(w, map[string]any{"items": items, "page_token": next, "has_more": next != ""})
}

func (s *Server) listMembers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	chatID := chi.URLParam(r, "chatID")
	members, found := s.members[chatID]
	if !found {
		writeError(w, 232010, "chat not found")
		return
	}
	idType := r.URL.Query().Get("member_id_type")
	start, end, next := page(r, len(members))
	items := make([]map[string]any, 0, end-start)
	for _, m := range members[start:end] {
		items = append(items, map[string]any{
			"member_id_type": idType,
			"member_id":      m.OpenID,
			"name":           m.Name,
		})
	}
	ok(w, map[string]any{
		"items":        items,
		"page_token":   next,
		"has_more":     next != "",
		"member_total": len(members),
	})
}

func (s *Server) createMessage(w http.ResponseWriter, r *http.Request) {
	var m Message
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		writeError(w, 99992402, "field validation failed")
		return
	}
	m.ReceiveIDType = r.URL.Query().Get("receive_id_type")
	if !json.Valid([]byte(m.Content)) {
		writeError(w, 230001, "invalid message content")
		return
	}

	s.mu.Lock()
	s.messages = append(s.messages, m)
	n := len(s.messages)
	s.mu.Unlock()

	chatID := m.ReceiveID
	if m.ReceiveIDType != "chat_id" {
		chatID = "oc_p2p_" + m.ReceiveID
	}
	ok(w, map[string]any{
		"message_id":  fmt.Sprintf("om_%d", n),
		"chat_id":     chatID,
		"msg_type":    m.MsgType,
		"create_time": "1700000000000",
		"body":        map[string]any{"content": m.Content},
	})
}

func readUpload(r *http.Request, field string) (*File, error) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return nil, err
	}
	f, hdr, err := r.FormFile(field)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	name := r.FormValue("file_name")
	if name == "" {
		name = hdr.Filename
	}
	return &File{Name: name, Data: data}, nil
}

func (s *Server) createImage(w http.ResponseWriter, r *http.Request) {
	f, err := readUpload(r, "image")
	if err != nil || r.FormValue("image_type") == "" {
		writeError(w, 234001, "invalid request param")
		return
	}
	s.mu.Lock()
	key := fmt.Sprintf("img_v3_%d", len(s.images)+1)
	s.images[key] = f.Data
	s.mu.Unlock()
	ok(w, map[string]any{"image_key": key})
}

func (s *Server) createFile(w http.ResponseWriter, r *http.Request) {
	f, err := readUpload(r, "file")
	if err != nil || r.FormValue("file_type") == "" {
		writeError(w, 234001, "invalid request param")
		return
	}
	f.Type = r.FormValue("file_type")
	s.mu.Lock()
	key := fmt.Sprintf("file_v3_%d", len(s.files)+1)
	s.files[key] = *f
	s.mu.Unlock()
	ok(w, map[string]any{"file_key": key})
}

func writeBinary(w http.ResponseWriter, name string, data []byte) {
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	_, _ = w.Write(data)
}

func (s *Server) getImage(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	data, found := s.Image(key)
	if !found {
		writeError(w, 234008, "image not found")
		return
	}
	writeBinary(w, key+".png", data)
}

func (s *Server) getFile(w http.ResponseWriter, r *http.Request) {
	f, found := s.File(chi.URLParam(r, "key"))
	if !found {
		writeError(w, 234003, "file not found")
		return
	}
	writeBinary(w, f.Name, f.Data)
}

func (s *Server) getResource(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	f, found := s.resources[chi.URLParam(r, "messageID")+"/"+chi.URLParam(r, "key")]
	s.mu.Unlock()
	if !found {
		writeError(w, 234003, "resource not found")
		return
	}
	writeBinary(w, f.Name, f.Data)
}
