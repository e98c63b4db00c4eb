package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"oasisbot/config"
	"oasisbot/service"
)

// Server is the read-only HTTP API
type Server struct {
	addr            string
	scheduleService service.RaceScheduleService
	entryService    service.RaceEntryService
	bettingService  service.RaceBettingService
	petService      service.PetService

	httpServer *http.Server
}

// NewServer creates a new read API server
func NewServer(
	addr string,
	scheduleService service.RaceScheduleService,
	entryService service.RaceEntryService,
	bettingService service.RaceBettingService,
	petService service.PetService,
) *Server {
	return &Server{
		addr:            addr,
		scheduleService: scheduleService,
		entryService:    entryService,
		bettingService:  bettingService,
		petService:      petService,
	}
}

// racePetResponse is one selected runner in the race response
type racePetResponse struct {
	PetID     int64    `json:"pet_id"`
	Name      string   `json:"name"`
	AdultKey  string   `json:"adult_key"`
	Speed     int      `json:"speed"`
	Power     int      `json:"power"`
	Stamina   int      `json:"stamina"`
	Condition int      `json:"condition"`
	Odds      *float64 `json:"odds"`
}

// raceResponse is the race read model
type raceResponse struct {
	RaceDate string            `json:"race_date"`
	RaceTime string            `json:"race_time"`
	Locked   bool              `json:"locked"`
	Pets     []racePetResponse `json:"pets"`
}

// Start runs the HTTP server until the context is cancelled
func (s *Server) Start(ctx context.Context) {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/api/race/{guild_id}/{race_date}/{race_no}", s.handleGetRace)

	s.httpServer = &http.Server{
		Addr:    s.addr,
		Handler: r,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("API server shutdown failed")
		}
	}()

	go func() {
		log.WithField("addr", s.addr).Info("Read API listening")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("API server failed")
		}
	}()
}

func (s *Server) handleGetRace(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	guildID, err := strconv.ParseInt(chi.URLParam(r, "guild_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid guild_id")
		return
	}
	raceDate, err := time.ParseInLocation("2006-01-02", chi.URLParam(r, "race_date"), config.Timezone)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid race_date")
		return
	}
	raceNo, err := strconv.Atoi(chi.URLParam(r, "race_no"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid race_no")
		return
	}

	schedule, err := s.scheduleService.Get(ctx, guildID, raceDate, raceNo)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			writeError(w, http.StatusNotFound, "race not found")
			return
		}
		log.WithError(err).Error("Failed to get race")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	resp := raceResponse{
		RaceDate: schedule.RaceDate.In(config.Timezone).Format("2006-01-02"),
		RaceTime: schedule.PostTime.In(config.Timezone).Format("15:04"),
		Locked:   schedule.LotteryDone && !schedule.RaceFinished,
		Pets:     []racePetResponse{},
	}

	selected, err := s.entryService.SelectedOf(ctx, schedule.ID)
	if err != nil {
		log.WithError(err).Error("Failed to list selected entries")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	oddsByPet := make(map[int64]*float64)
	if len(selected) > 0 {
		quotes, err := s.bettingService.QuoteOdds(ctx, guildID, schedule.ID)
		if err != nil {
			log.WithError(err).Error("Failed to quote odds")
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		for _, q := range quotes {
			oddsByPet[q.PetID] = q.Odds
		}
	}

	for _, entry := range selected {
		pet, err := s.petService.GetPet(ctx, entry.PetID)
		if err != nil {
			log.WithError(err).WithField("petId", entry.PetID).Error("Failed to get pet")
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		resp.Pets = append(resp.Pets, racePetResponse{
			PetID:     pet.ID,
			Name:      pet.Name,
			AdultKey:  pet.AdultKey,
			Speed:     pet.Speed,
			Power:     pet.Power,
			Stamina:   pet.Stamina,
			Condition: pet.Condition,
			Odds:      oddsByPet[pet.ID],
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Error("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
