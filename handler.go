// File: handler.go
package main

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"textCaptchaAuth/captcha"
)

type app struct {
	cfg      *Config
	engine   *captcha.Engine
	store    ChallengeStore
	tokens   *TokenIssuer
	validate *validator.Validate
	started  time.Time
}

func newApp(cfg *Config, engine *captcha.Engine, store ChallengeStore, tokens *TokenIssuer) *app {
	return &app{
		cfg:      cfg,
		engine:   engine,
		store:    store,
		tokens:   tokens,
		validate: validator.New(),
		started:  time.Now(),
	}
}

func (a *app) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", a.handleHealth)
	r.Route("/api/captcha", func(r chi.Router) {
		r.Get("/start", a.handleStart)
		r.Post("/verify", a.handleVerify)
		r.Get("/pass", a.handlePass)
	})
	if a.cfg.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(a.cfg.StaticDir)))
	}
	return r
}

func parseStartRequest(r *http.Request) (StartRequest, error) {
	q := r.URL.Query()
	req := StartRequest{Difficulty: strings.ToLower(q.Get("difficulty"))}
	if v := q.Get("mix"); v != "" {
		mix, err := strconv.ParseBool(v)
		if err != nil {
			return req, err
		}
		req.Mix = &mix
	}
	var err error
	if v := q.Get("length"); v != "" {
		if req.Length, err = strconv.Atoi(v); err != nil {
			return req, err
		}
	}
	if v := q.Get("height"); v != "" {
		if req.Height, err = strconv.Atoi(v); err != nil {
			return req, err
		}
	}
	return req, nil
}

// challengeConfig applies the request overrides on top of the configured defaults.
func (a *app) challengeConfig(req StartRequest) (captcha.Config, error) {
	cfg, err := a.cfg.Captcha.ChallengeConfig()
	if err != nil {
		return cfg, err
	}
	if req.Difficulty != "" {
		if cfg.Difficulty, err = captcha.ParseDifficulty(req.Difficulty); err != nil {
			return cfg, err
		}
	}
	if req.Mix != nil {
		cfg.MixLetters = *req.Mix
		cfg.Charset = captcha.CharsetAuto
	}
	if req.Length > 0 {
		cfg.LetterCount = req.Length
	}
	if req.Height > 0 {
		cfg.LetterHeight = req.Height
	}
	return cfg, nil
}

func (a *app) handleStart(w http.ResponseWriter, r *http.Request) {
	req, err := parseStartRequest(r)
	if err != nil {
		http.Error(w, "invalid query: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := a.validate.Struct(req); err != nil {
		http.Error(w, "invalid query: "+err.Error(), http.StatusBadRequest)
		return
	}
	cfg, err := a.challengeConfig(req)
	if err != nil {
		http.Error(w, err.Error(), httpStatus(err))
		return
	}

	res, err := a.engine.GenerateContext(r.Context(), cfg)
	if err != nil {
		log.Printf("Challenge generation failed: %v", err)
		http.Error(w, "failed to generate challenge: "+err.Error(), httpStatus(err))
		return
	}
	img, err := captcha.DataURI(res.Image)
	if err != nil {
		http.Error(w, "failed to encode image: "+err.Error(), http.StatusInternalServerError)
		return
	}

	// 存储答案, 只允许验证一次
	id := uuid.New().String()
	ttl := time.Duration(a.cfg.ChallengeTTLSeconds) * time.Second
	if err := a.store.Put(r.Context(), id, res.Text, ttl); err != nil {
		log.Printf("Challenge %s store failed: %v", id, err)
		http.Error(w, "failed to store challenge", http.StatusInternalServerError)
		return
	}
	log.Printf("Challenge %s issued to %s (%s, %d letters)", id, clientIP(r), cfg.Difficulty, len(res.Text))

	writeJSON(w, http.StatusOK, StartResponse{
		UUID:      id,
		Image:     img,
		ExpiresAt: time.Now().Add(ttl).UTC(),
	})
}

func (a *app) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.UUID == "" {
		http.Error(w, "uuid is required", http.StatusBadRequest)
		return
	}

	answer, ok, err := a.store.Take(r.Context(), req.UUID)
	if err != nil {
		log.Printf("Challenge %s lookup failed: %v", req.UUID, err)
		http.Error(w, "failed to load challenge", http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "uuid not found", http.StatusNotFound)
		return
	}

	// 忽略大小写和首尾空白
	if !strings.EqualFold(strings.TrimSpace(req.Answer), strings.TrimSpace(answer)) {
		log.Printf("Challenge %s failed by %s", req.UUID, clientIP(r))
		writeJSON(w, http.StatusOK, VerifyResponse{Success: false, Message: "验证失败"})
		return
	}

	token, exp, err := a.tokens.Issue(req.UUID, clientIP(r))
	if err != nil {
		log.Printf("Challenge %s token signing failed: %v", req.UUID, err)
		http.Error(w, "failed to issue token", http.StatusInternalServerError)
		return
	}
	log.Printf("Challenge %s passed by %s", req.UUID, clientIP(r))
	writeJSON(w, http.StatusOK, VerifyResponse{Success: true, Message: "验证通过", Token: token, ExpiresAt: &exp})
}

func (a *app) handlePass(w http.ResponseWriter, r *http.Request) {
	raw, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !found {
		http.Error(w, "missing bearer token", http.StatusUnauthorized)
		return
	}
	claims, err := a.tokens.Validate(strings.TrimSpace(raw))
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, PassResponse{
		Valid:       true,
		ChallengeID: claims.ChallengeID,
		ExpiresAt:   claims.ExpiresAt.Time,
	})
}

func (a *app) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Uptime: time.Since(a.started).String(),
	})
}
