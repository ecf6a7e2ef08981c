package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/maine/tg_gemini_relay/internal/config"
	"github.com/maine/tg_gemini_relay/internal/telegram"
)

// SecretHeader - заголовок, в котором Telegram присылает секрет вебхука.
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

// UpdateHandler обрабатывает обновление в фоне, после ответа Telegram.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, upd telegram.Update) error
}

// Deps перечисляет зависимости сервера.
type Deps struct {
	Addr    string
	Secret  string
	Handler UpdateHandler
	Config  config.HTTP
	// NewTaskID выдаёт идентификатор фоновой задачи для логов; по умолчанию uuid.
	NewTaskID func() string
}

// Server принимает вебхуки Telegram. Каждое принятое обновление
// обрабатывается в отдельной горутине, ответ 200 отправляется сразу.
type Server struct {
	addr      string
	secret    []byte
	handler   UpdateHandler
	cfg       config.HTTP
	newTaskID func() string

	tasks sync.WaitGroup
}

// New создаёт сервер.
func New(deps Deps) *Server {
	newTaskID := deps.NewTaskID
	if newTaskID == nil {
		newTaskID = uuid.NewString
	}
	return &Server{
		addr:      deps.Addr,
		secret:    []byte(deps.Secret),
		handler:   deps.Handler,
		cfg:       config.Root{HTTP: deps.Config}.WithDefaults().HTTP,
		newTaskID: newTaskID,
	}
}

// Routes возвращает http.Handler со всеми маршрутами.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /webhook", s.handleWebhook)
	return mux
}

// ListenAndServe запускает HTTP-сервер и блокируется до отмены ctx.
// При остановке ждёт незавершённые фоновые задачи не дольше ShutdownGrace.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	}

	srv := &http.Server{
		Handler:           s.Routes(),
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout,
		ReadTimeout:       s.cfg.ReadTimeout,
		IdleTimeout:       s.cfg.IdleTimeout,
	}

	log.Printf("Listening on %s", ln.Addr())

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Println("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownGrace)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	if err := s.Wait(shutdownCtx); err != nil {
		return fmt.Errorf("wait for background tasks: %w", err)
	}
	return nil
}

// Wait ждёт завершения всех фоновых задач или отмены ctx.
func (s *Server) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.tasks.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "ok")
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	got := r.Header.Get(SecretHeader)
	if subtle.ConstantTimeCompare([]byte(got), s.secret) != 1 {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var upd telegram.Update
	body := http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(&upd); err != nil && !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, http.StatusText(http.StatusRequestEntityTooLarge), http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, http.StatusText(http.StatusOK))

	s.dispatch(context.WithoutCancel(r.Context()), upd)
}

// dispatch запускает обработку в фоне. Ошибки и паники только логируются.
func (s *Server) dispatch(ctx context.Context, upd telegram.Update) {
	taskID := s.newTaskID()
	s.tasks.Add(1)

	go func() {
		defer s.tasks.Done()
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("handleUpdate panic (task=%s): %v", taskID, rec)
			}
		}()

		start := time.Now()
		if err := s.handler.HandleUpdate(ctx, upd); err != nil {
			log.Printf("handleUpdate error (task=%s, update=%d): %v", taskID, upd.UpdateID, err)
			return
		}
		log.Printf("handleUpdate done (task=%s, update=%d) in %v", taskID, upd.UpdateID, time.Since(start).Round(time.Millisecond))
	}()
}
