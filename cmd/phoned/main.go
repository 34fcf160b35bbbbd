package main

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/voicebridge/watchlink/internal/logger"
	"github.com/voicebridge/watchlink/internal/phone"
	"github.com/voicebridge/watchlink/internal/store"
	"github.com/voicebridge/watchlink/internal/translate"
	"github.com/voicebridge/watchlink/internal/transport"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The watch dials from the device itself, not a browser.
	CheckOrigin: func(r *http.Request) bool { return true },
}

func main() {
	_ = godotenv.Load()

	viper.SetConfigName("phoned")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.SetEnvPrefix("watchlink")
	viper.AutomaticEnv()
	_ = viper.ReadInConfig() // config file is optional
	viper.SetDefault("listen_addr", ":9040")
	viper.SetDefault("db_path", "watchlink.sqlite3")
	viper.SetDefault("log_level", "info")
	viper.SetDefault("translation_cost", 1)
	viper.SetDefault("gemini_model", "")
	viper.SetDefault("gemini_api_key", "")
	viper.SetDefault("eleven_labs_api_key", "")
	viper.SetDefault("eleven_labs_voice_id", "")

	log := logger.NewWithLevel(viper.GetString("log_level"))

	db, err := store.NewDB(viper.GetString("db_path"))
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	credits := store.NewCreditStore(db)
	history := store.NewHistoryStore(db)
	languages := store.NewLanguageStore(db)

	var translator translate.Translator
	if apiKey := viper.GetString("gemini_api_key"); apiKey != "" {
		translator, err = translate.NewGeminiTranslator(context.Background(), translate.GeminiConfig{
			APIKey: apiKey,
			Model:  viper.GetString("gemini_model"),
		}, log)
		if err != nil {
			log.Fatalf("Failed to create translator: %v", err)
		}
	} else {
		log.Warn("WATCHLINK_GEMINI_API_KEY not set, echoing translations")
		translator = &translate.StaticTranslator{}
	}

	var speech translate.Speech
	if apiKey := viper.GetString("eleven_labs_api_key"); apiKey != "" {
		speech, err = translate.NewElevenLabsSpeech(translate.ElevenLabsConfig{
			APIKey:  apiKey,
			VoiceID: viper.GetString("eleven_labs_voice_id"),
		}, log)
		if err != nil {
			log.Fatalf("Failed to create speech client: %v", err)
		}
	}

	http.HandleFunc("/relay", func(w http.ResponseWriter, r *http.Request) {
		deviceID := r.URL.Query().Get("device")
		if deviceID == "" {
			http.Error(w, "device query parameter is required", http.StatusBadRequest)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warnf("Upgrade failed: %v", err)
			return
		}

		session := transport.Accept(conn, log)
		svc, err := phone.NewService(session, credits, history, languages, translator, speech, phone.Config{
			DeviceID:           deviceID,
			CostPerTranslation: viper.GetInt64("translation_cost"),
			Logger:             log,
		})
		if err != nil {
			log.Errorf("Failed to start relay service for %s: %v", deviceID, err)
			_ = session.Close()
			return
		}
		if err := svc.Start(r.Context()); err != nil {
			log.Errorf("Failed to start relay service for %s: %v", deviceID, err)
			_ = session.Close()
			return
		}

		log.Infof("Watch %s connected", deviceID)
		<-svc.Disconnected()
		svc.Close()
		_ = session.Close()
		log.Infof("Watch %s disconnected", deviceID)
	})

	addr := viper.GetString("listen_addr")
	log.Infof("Listening on %s", addr)
	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
