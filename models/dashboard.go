package models

type DashboardStats struct {
	TotalClubs      int `json:"total_clubs"`
	TotalPlayers    int `json:"total_players"`
	TotalTeams      int `json:"total_teams"`
	PaidTeams       int `json:"paid_teams"`
	UnpaidTeams     int `json:"unpaid_teams"`
	ProcessingTeams int `json:"processing_teams"`
}

type AdminDashboard struct {
	Admin *Club          `json:"admin_details"`
	Stats DashboardStats `json:"stats"`
}
