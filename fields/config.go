package fields

import "os"

// NotifyConfig carries system-level configuration. Values come from an
// optional JSON config file with environment overrides; zero values are
// filled by Defaults.
type NotifyConfig struct {
	Port                string `json:"port"`
	BackendURL          string `json:"backend_url"`
	FirebaseCredentials string `json:"firebase_credentials"`
	RedisHost           string `json:"redis_host"`
	Location            string `json:"location"`
	IsDebug             bool   `json:"is_debug"`
}

// Defaults fills unset fields, applying environment overrides first.
func (n *NotifyConfig) Defaults() {
	if v := os.Getenv("PLANTE_BACKEND_URL"); v != "" {
		n.BackendURL = v
	}
	if v := os.Getenv("PLANTE_REDIS_HOST"); v != "" {
		n.RedisHost = v
	}
	if v := os.Getenv("PLANTE_FIREBASE_CREDENTIALS"); v != "" {
		n.FirebaseCredentials = v
	}
	if n.Port == "" {
		n.Port = ":8090"
	}
	if n.BackendURL == "" {
		n.BackendURL = "http://localhost:8080"
	}
	if n.FirebaseCredentials == "" {
		n.FirebaseCredentials = "firebase-sdk.json"
	}
	if n.RedisHost == "" {
		n.RedisHost = "localhost:6379"
	}
	if n.Location == "" {
		n.Location = "Asia/Bangkok"
	}
}
