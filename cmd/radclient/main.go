package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/seed4me/radclient/internal/exporter"
	"github.com/seed4me/radclient/internal/logger"
	"github.com/seed4me/radclient/pkg/client"
)

func main() {
	// Load configuration
	viper.SetConfigName("radclient")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("/etc/radclient/")
	viper.AddConfigPath("$HOME/.radclient")
	viper.AddConfigPath(".")

	viper.SetDefault("server.auth_port", 1812)
	viper.SetDefault("server.timeout", 5)
	viper.SetDefault("auth.method", "pap")
	viper.SetDefault("message_export.type", "file")
	viper.SetDefault("logging.level", "info")

	if err := viper.ReadInConfig(); err != nil {
		fmt.Printf("Error reading config file: %s\n", err)
		os.Exit(1)
	}

	// Initialize logger
	err := logger.Init(
		viper.GetString("logging.file"),
		viper.GetString("logging.level"),
		viper.GetInt("logging.max_size"),
		viper.GetInt("logging.max_backups"),
	)
	if err != nil {
		fmt.Printf("Error initializing logger: %s\n", err)
		os.Exit(1)
	}

	log := logger.GetLogger()

	// Initialize exporter
	export, err := exporter.New(exporter.Config{
		Type: viper.GetString("message_export.type"),
		File: exporter.FileConfig{
			Path: viper.GetString("message_export.file.path"),
		},
		Kafka: exporter.KafkaConfig{
			Brokers: viper.GetStringSlice("message_export.kafka.brokers"),
			Topic:   viper.GetString("message_export.kafka.topic"),
		},
		Nats: exporter.NatsConfig{
			URL:     viper.GetString("message_export.nats.url"),
			Subject: viper.GetString("message_export.nats.subject"),
		},
	})
	if err != nil {
		log.Fatalf("Error initializing exporter: %s", err)
	}
	defer export.Close()

	servers := viper.GetStringSlice("server.hosts")
	if len(servers) == 0 {
		if host := viper.GetString("server.host"); host != "" {
			servers = []string{host}
		}
	}
	if len(servers) == 0 {
		log.Fatal("No RADIUS server configured")
	}

	secret := viper.GetString("server.secret")
	if secret == "" {
		log.Fatal("RADIUS shared secret is not configured")
	}

	c := client.New(servers[0], secret,
		client.WithAuthPort(viper.GetInt("server.auth_port")),
		client.WithTimeout(time.Duration(viper.GetInt("server.timeout"))*time.Second),
		client.WithSuffix(viper.GetString("server.suffix")),
		client.WithLogger(log),
	)

	if nasIP := viper.GetString("client.nas_ip"); nasIP != "" {
		c.SetNASIPAddress(nasIP)
	}
	if viper.IsSet("client.nas_port") {
		c.SetNASPort(viper.GetUint32("client.nas_port"))
	}
	if viper.GetBool("client.message_authenticator") {
		c.SetIncludeMessageAuthenticator(true)
	}

	username := viper.GetString("auth.username")
	password := viper.GetString("auth.password")
	method := viper.GetString("auth.method")

	start := time.Now()
	var ok bool

	switch method {
	case "pap":
		ok = c.AuthenticatePAPList(servers, username, password)
	case "chap":
		ok = c.AuthenticateCHAP(username, password)
	case "mschap":
		ok = c.AuthenticateMSCHAP(username, password)
	case "eap-mschapv2":
		ok = c.AuthenticateEAPMSCHAPv2List(servers, username, password)
	case "change-password":
		ok = c.ChangePasswordEAPMSCHAPv2(username, password, viper.GetString("auth.new_password"))
	default:
		log.Fatalf("Unsupported authentication method: %s", method)
	}

	event := &exporter.AuthEvent{
		Timestamp:  time.Now().Unix(),
		UserName:   username,
		Server:     servers[0],
		Method:     method,
		IsSuccess:  ok,
		DurationMs: time.Since(start).Milliseconds(),
	}
	if !ok {
		event.ErrorCode = c.LastErrorCode()
		event.FailureReason = c.LastErrorMessage()
	}
	if err := export.SendAuthEvent(event); err != nil {
		log.WithError(err).Warn("Failed to export auth event")
	}

	if !ok {
		log.Errorf("Authentication failed (%d): %s", c.LastErrorCode(), c.LastErrorMessage())
		os.Exit(1)
	}
	log.Infof("Authentication succeeded for %s", username)
}
