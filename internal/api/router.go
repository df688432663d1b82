package api

import (
	"github.com/gorilla/mux"
)

// NewRouter builds the HTTP route table: catalog upserts and lookups,
// campaign CRUD and listing, the ad-serving and click endpoints, clock
// control, and stats.
func NewRouter(s *Server) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.HealthHandler).Methods("GET")

	r.HandleFunc("/clients", s.UpsertClientsHandler).Methods("POST")
	r.HandleFunc("/clients/{id}", s.GetClientHandler).Methods("GET")
	r.HandleFunc("/clients/{id}/ad", s.GetAdHandler).Methods("GET")

	r.HandleFunc("/advertisers", s.UpsertAdvertisersHandler).Methods("POST")
	r.HandleFunc("/advertisers/{id}", s.GetAdvertiserHandler).Methods("GET")
	r.HandleFunc("/advertisers/{id}/campaigns", s.ListCampaignsHandler).Methods("GET")
	r.HandleFunc("/advertisers/{id}/stats", s.AdvertiserStatsHandler).Methods("GET")
	r.HandleFunc("/advertisers/{id}/stats/daily", s.AdvertiserDailyStatsHandler).Methods("GET")

	r.HandleFunc("/ml-scores", s.UpsertMLScoreHandler).Methods("POST")

	r.HandleFunc("/campaigns", s.CreateCampaignHandler).Methods("POST")
	r.HandleFunc("/campaigns/{id}", s.GetCampaignHandler).Methods("GET")
	r.HandleFunc("/campaigns/{id}", s.UpdateCampaignHandler).Methods("PUT")
	r.HandleFunc("/campaigns/{id}", s.DeleteCampaignHandler).Methods("DELETE")
	r.HandleFunc("/campaigns/{id}/click", s.RecordClickHandler).Methods("POST")
	r.HandleFunc("/campaigns/{id}/stats", s.CampaignStatsHandler).Methods("GET")
	r.HandleFunc("/campaigns/{id}/stats/daily", s.CampaignDailyStatsHandler).Methods("GET")

	r.HandleFunc("/clock", s.GetDayHandler).Methods("GET")
	r.HandleFunc("/clock", s.SetDayHandler).Methods("POST")

	return r
}
