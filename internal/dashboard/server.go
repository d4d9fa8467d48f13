package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"pivotbot/internal/logger"
	"pivotbot/internal/state"
)

// Server отдаёт снимок состояния бота по HTTP. Только чтение: ни один
// обработчик состояние не мутирует.
type Server struct {
	state *state.Manager
	log   *logger.Logger
	http  *http.Server
}

func New(host string, port int, st *state.Manager, log *logger.Logger) *Server {
	s := &Server{
		state: st,
		log:   log,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/state", s.handleState)
	mux.HandleFunc("/api/health", s.handleHealth)

	s.http = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", host, port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return s
}

// Handler отдаёт корневой обработчик, чтобы тесты могли ходить через
// httptest без реального листенера.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.log.WithComponent("dashboard").Infof("Дашборд слушает на %s", s.http.Addr)
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("Ошибка остановки дашборда: %w", err)
		}
		s.log.WithComponent("dashboard").Info("Дашборд остановлен.")
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("Ошибка HTTP-сервера дашборда: %w", err)
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snap := s.state.Snapshot()

	// Сначала сериализуем, потом пишем: после первого байта тела сменить
	// статус на 500 уже нельзя.
	body, err := json.Marshal(snap)
	if err != nil {
		s.log.WithComponent("dashboard").WithError(err).Error("Не удалось сериализовать снимок состояния.")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Write(body)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	json.NewEncoder(w).Encode(map[string]any{
		"status":    "ok",
		"timestamp": float64(time.Now().UnixNano()) / 1e9,
	})
}
