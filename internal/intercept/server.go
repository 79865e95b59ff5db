// Package intercept runs a local reverse proxy in front of the game's
// landing site. With interception enabled it answers the can-start and
// finish-game endpoints locally (unlimited plays, every submission
// "recorded"), and annotates the shooter quiz questions with their
// true/false answers. Everything else passes through to the upstream
// untouched.
//
// Point the game client's Proxy config at this server, or the browser's
// proxy settings when playing by hand.
package intercept

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mofidlab/anniversary40-go/internal/scorecodec"
)

const (
	canStartPath   = "/api-service/anniversary40/can-start"
	finishGamePath = "/api-service/anniversary40/finish-game"
	textsPath      = "/games/shooter/texts.json"
)

// Answer labels appended to annotated quiz questions (Persian, matching
// the game's UI language).
const (
	labelTrue  = " (✓ درست)🟩"
	labelFalse = " (✗ غلط)🟥"
)

// Config holds intercept server configuration.
type Config struct {
	// Upstream is the real landing site requests are proxied to.
	Upstream *url.URL

	// InterceptGameAPI answers can-start and finish-game locally
	// instead of forwarding them.
	InterceptGameAPI bool

	// AnnotateTexts rewrites the shooter quiz questions with answer
	// labels on the way back from upstream.
	AnnotateTexts bool

	// Codec, when set, decodes points_earned from intercepted
	// finish-game submissions so the log shows the raw score and
	// whether its signature verifies.
	Codec *scorecodec.Codec

	// Logger defaults to a stdout logger with an "[intercept]" prefix.
	Logger *log.Logger
}

// Server is the local intercept proxy.
type Server struct {
	cfg    Config
	proxy  *httputil.ReverseProxy
	logger *log.Logger
}

// NewServer creates an intercept server for the given upstream.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(os.Stdout, "[intercept] ", log.LstdFlags)
	}

	s := &Server{cfg: cfg, logger: logger}

	proxy := httputil.NewSingleHostReverseProxy(cfg.Upstream)
	director := proxy.Director
	proxy.Director = func(req *http.Request) {
		director(req)
		// Browsers offer gzip; forwarding that verbatim would hand
		// modifyResponse compressed bytes. Dropping the header lets
		// the transport negotiate encoding itself and decompress the
		// texts body transparently before annotation.
		if cfg.AnnotateTexts && strings.HasSuffix(req.URL.Path, textsPath) {
			req.Header.Del("Accept-Encoding")
		}
	}
	proxy.ModifyResponse = s.modifyResponse
	s.proxy = proxy

	return s
}

// Routes sets up the HTTP routes.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// The game frontend sends cross-origin preflights for API calls.
	// Answer them locally only for the endpoints we fake; in pure
	// pass-through mode the upstream keeps owning OPTIONS too.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == "OPTIONS" && s.cfg.InterceptGameAPI && interceptedPath(r.URL.Path) {
				writeCORS(w.Header())
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	r.HandleFunc(canStartPath, s.handleCanStart)
	r.HandleFunc(finishGamePath, s.handleFinishGame)
	r.NotFound(s.proxy.ServeHTTP)

	return r
}

func interceptedPath(p string) bool {
	return p == canStartPath || p == finishGamePath
}

func writeCORS(h http.Header) {
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	writeCORS(w.Header())
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// handleCanStart answers eligibility checks with "yes" regardless of
// how many rounds the player has used.
func (s *Server) handleCanStart(w http.ResponseWriter, r *http.Request) {
	if !s.cfg.InterceptGameAPI {
		s.proxy.ServeHTTP(w, r)
		return
	}

	game := r.URL.Query().Get("game")
	if game == "" {
		game = "unknown"
	}
	s.logger.Printf("can-start intercepted game=%s", game)

	s.writeJSON(w, http.StatusOK, map[string]any{
		"can_start":         1,
		"total_points":      0,
		"remaining_chances": 0,
	})
}

// handleFinishGame acknowledges every submission locally. The submitted
// points are decoded for the log but otherwise discarded.
func (s *Server) handleFinishGame(w http.ResponseWriter, r *http.Request) {
	if !s.cfg.InterceptGameAPI {
		s.proxy.ServeHTTP(w, r)
		return
	}

	var body struct {
		MissionName  string `json:"mission_name"`
		PointsEarned string `json:"points_earned"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.logger.Printf("finish-game intercepted, unreadable body: %v", err)
	} else if s.cfg.Codec != nil {
		res := s.cfg.Codec.Decode(body.PointsEarned)
		if res.Err != nil {
			s.logger.Printf("finish-game intercepted mission=%s points=<malformed: %v>", body.MissionName, res.Err)
		} else {
			s.logger.Printf("finish-game intercepted mission=%s score=%d at=%s valid=%t",
				body.MissionName, res.Score, res.Time.Format(time.RFC3339), res.Valid)
		}
	} else {
		s.logger.Printf("finish-game intercepted mission=%s", body.MissionName)
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Action recorded successfully",
	})
}

// modifyResponse annotates the quiz question file on its way back from
// upstream. All other proxied responses pass through unmodified.
func (s *Server) modifyResponse(resp *http.Response) error {
	if !s.cfg.AnnotateTexts || resp.Request == nil || !strings.HasSuffix(resp.Request.URL.Path, textsPath) {
		return nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil
	}

	raw, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("intercept: read texts body: %w", err)
	}

	// Some servers compress regardless of Accept-Encoding; decode
	// before annotating and serve the result identity-encoded.
	out := raw
	plain, wasGzip, err := decompressTexts(resp.Header.Get("Content-Encoding"), raw)
	if err != nil {
		s.logger.Printf("texts.json not annotated: %v", err)
	} else if annotated, count, aerr := annotateTexts(plain); aerr != nil {
		// Pass unexpected shapes through untouched.
		s.logger.Printf("texts.json not annotated: %v", aerr)
	} else {
		out = annotated
		if wasGzip {
			resp.Header.Del("Content-Encoding")
		}
		s.logger.Printf("texts.json annotated, %d questions labeled", count)
	}

	resp.Body = io.NopCloser(bytes.NewReader(out))
	resp.ContentLength = int64(len(out))
	resp.Header.Set("Content-Length", fmt.Sprint(len(out)))
	return nil
}

// decompressTexts undoes upstream gzip when present. The second return
// reports whether the payload was compressed.
func decompressTexts(encoding string, raw []byte) ([]byte, bool, error) {
	if !strings.Contains(encoding, "gzip") {
		return raw, false, nil
	}
	zr, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, true, fmt.Errorf("intercept: gunzip texts: %w", err)
	}
	defer zr.Close()
	plain, err := io.ReadAll(zr)
	if err != nil {
		return nil, true, fmt.Errorf("intercept: gunzip texts: %w", err)
	}
	return plain, true, nil
}

// annotateTexts appends the answer label to each question's text.
// The file is a map of question objects carrying "text" and "type"
// ("true"/"false") fields.
func annotateTexts(raw []byte) ([]byte, int, error) {
	var texts map[string]map[string]any
	if err := json.Unmarshal(raw, &texts); err != nil {
		return nil, 0, fmt.Errorf("intercept: decode texts: %w", err)
	}

	count := 0
	for _, question := range texts {
		text, hasText := question["text"].(string)
		qtype, hasType := question["type"].(string)
		if !hasText || !hasType {
			continue
		}
		if qtype == "true" {
			question["text"] = text + labelTrue
		} else {
			question["text"] = text + labelFalse
		}
		count++
	}

	out, err := json.Marshal(texts)
	if err != nil {
		return nil, 0, fmt.Errorf("intercept: encode texts: %w", err)
	}
	return out, count, nil
}
