package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/NebXTeaath/GNT-Store-sub001/internal/autocomplete"
	"github.com/NebXTeaath/GNT-Store-sub001/internal/models"
	"github.com/NebXTeaath/GNT-Store-sub001/internal/storefront"
	"github.com/NebXTeaath/GNT-Store-sub001/internal/urlstate"
)

const liveWriteWait = 10 * time.Second

// Live message types sent to the client.
const (
	msgSession      = "session"
	msgView         = "view"
	msgAutocomplete = "autocomplete"
	msgError        = "error"
)

// liveMessage is one server-to-client frame.
type liveMessage struct {
	Type         string                 `json:"type"`
	SessionID    string                 `json:"session_id,omitempty"`
	View         *storefront.View       `json:"view,omitempty"`
	Autocomplete *autocomplete.Snapshot `json:"autocomplete,omitempty"`
	State        string                 `json:"state,omitempty"`
	Error        string                 `json:"error,omitempty"`
}

// liveAction is one client-to-server frame. Which fields are read depends on Action.
type liveAction struct {
	Action  string            `json:"action"`
	Term    string            `json:"term,omitempty"`
	Key     string            `json:"key,omitempty"`
	Value   string            `json:"value,omitempty"`
	Updates urlstate.Updates  `json:"updates,omitempty"`
	Enabled bool              `json:"enabled,omitempty"`
	Range   models.PriceRange `json:"range"`
	Page    int               `json:"page,omitempty"`
	SortBy  string            `json:"sort_by,omitempty"`
}

// liveSession binds one WebSocket connection to a storefront page and a search
// input. Only the write loop writes to conn.
type liveSession struct {
	id     string
	conn   *websocket.Conn
	page   *storefront.Page
	input  *autocomplete.Controller
	errs   chan string
	logger *zap.Logger

	cancel    context.CancelFunc
	closeOnce sync.Once
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied.
		s.logger.Debug("live upgrade failed", zap.Error(err))
		return
	}

	id := uuid.NewString()
	logger := s.logger.With(zap.String("session", id))
	ctx, cancel := context.WithCancel(context.Background())
	sess := &liveSession{
		id:   id,
		conn: conn,
		page: storefront.New(
			urlstate.NewStore(r.URL.RawQuery, urlstate.WithStoreLogger(logger)),
			s.client,
			storefront.WithLogger(logger),
		),
		input: autocomplete.New(s.client,
			autocomplete.WithLogger(logger),
			autocomplete.WithDelay(s.config.Search.DebounceDelay),
			autocomplete.WithMinTermLength(s.config.Search.MinTermLength),
		),
		errs:   make(chan string, 4),
		logger: logger,
		cancel: cancel,
	}
	s.addSession(sess)
	defer s.removeSession(id)
	defer sess.close()

	logger.Debug("live session opened", zap.String("query", r.URL.RawQuery))
	sess.run(ctx)
	logger.Debug("live session closed")
}

func (l *liveSession) run(ctx context.Context) {
	viewID, views := l.page.Subscribe()
	defer l.page.Unsubscribe(viewID)
	inputID, inputs := l.input.Subscribe()
	defer l.input.Unsubscribe(inputID)

	if err := l.write(liveMessage{Type: msgSession, SessionID: l.id}); err != nil {
		return
	}
	go l.page.Start(ctx)
	go l.writeLoop(ctx, views, inputs)
	l.readLoop()
}

func (l *liveSession) write(msg liveMessage) error {
	_ = l.conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
	return l.conn.WriteJSON(msg)
}

func (l *liveSession) writeLoop(ctx context.Context, views <-chan storefront.View, inputs <-chan autocomplete.Snapshot) {
	defer l.close()
	for {
		var msg liveMessage
		select {
		case <-ctx.Done():
			return
		case v, ok := <-views:
			if !ok {
				return
			}
			msg = liveMessage{Type: msgView, View: &v}
		case snap, ok := <-inputs:
			if !ok {
				return
			}
			msg = liveMessage{Type: msgAutocomplete, Autocomplete: &snap, State: snap.State.String()}
		case e := <-l.errs:
			msg = liveMessage{Type: msgError, Error: e}
		}
		if err := l.write(msg); err != nil {
			l.logger.Debug("live write failed", zap.Error(err))
			return
		}
	}
}

func (l *liveSession) readLoop() {
	for {
		var act liveAction
		if err := l.conn.ReadJSON(&act); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				l.logger.Debug("live read failed", zap.Error(err))
			}
			return
		}
		if err := l.dispatch(act); err != nil {
			select {
			case l.errs <- err.Error():
			default:
			}
		}
	}
}

// dispatch applies one client action to the page or the search input.
func (l *liveSession) dispatch(act liveAction) error {
	l.logger.Debug("live action", zap.String("action", act.Action))
	switch act.Action {
	case "type":
		l.input.SetTerm(act.Term)
	case "search":
		l.page.UpdateFilters(urlstate.Updates{urlstate.KeyTerm: urlstate.Str(act.Term)})
	case "update_filters":
		l.page.UpdateFilters(act.Updates)
	case "toggle_filter":
		if !urlstate.IsMultiValue(act.Key) {
			return fmt.Errorf("%q is not a multi-value filter", act.Key)
		}
		if err := l.page.ToggleFilterOption(act.Key, act.Value); err != nil {
			return err
		}
	case "suggestion":
		l.page.HandleSuggestionClick(act.Term)
	case "clear_filters":
		l.page.HandleClearFilters(act.Term)
	case "discount_toggle":
		l.page.HandleDiscountFilterToggle(act.Enabled)
	case "price_range":
		if act.Range.Min > act.Range.Max {
			return fmt.Errorf("invalid price range %v-%v", act.Range.Min, act.Range.Max)
		}
		l.page.HandlePriceRangeChange(act.Range)
	case "page":
		l.page.GoToPage(act.Page)
	case "sort":
		l.page.SetSort(models.ParseSortBy(act.SortBy))
	case "retry":
		l.page.Retry()
	case "back":
		l.page.Back()
	case "forward":
		l.page.Forward()
	default:
		return fmt.Errorf("unknown action %q", act.Action)
	}
	return nil
}

func (l *liveSession) close() {
	l.closeOnce.Do(func() {
		l.cancel()
		l.input.Close()
		l.page.Close()
		_ = l.conn.Close()
	})
}
