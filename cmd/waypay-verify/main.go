package main

import (
	// Go Internal Packages
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	// Local Packages
	config "waypay/config"
	gateway "waypay/gateway"
	kafka "waypay/kafka"
	models "waypay/models"
	mongodb "waypay/repositories/mongodb"
	redis "waypay/repositories/redis"
	workflow "waypay/services/workflow"

	// External Packages
	"github.com/alecthomas/kingpin/v2"
	_ "github.com/jsternberg/zap-logfmt"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/twmb/franz-go/plugin/kprom"
	"go.uber.org/zap"
)

var (
	flow = kingpin.Flag("flow", "Flow to resume: ticket or vote").Default("ticket").String()
)

// LoadSecrets Loads the secret variables and overrides the config
func LoadSecrets(k config.Config) config.Config {
	APIKey := os.Getenv("GATEWAY_API_KEY")
	if APIKey != "" {
		k.Gateway.APIKey = APIKey
	}

	RedisPassword := os.Getenv("REDIS_PASSWORD")
	if RedisPassword != "" {
		k.Redis.Password = RedisPassword
	}

	MongoURI := os.Getenv("MONGO_URI")
	if MongoURI != "" {
		k.Mongo.URI = MongoURI
	}
	return k
}

// LoadConfig loads the default configuration and overrides it with the config file
// specified by the path defined in the config flag
func LoadConfig() *koanf.Koanf {
	configPathMsg := "Path to the application config file"
	configPath := kingpin.Flag("config", configPathMsg).Short('c').Default("config.yml").String()

	kingpin.Parse()
	k := koanf.New(".")
	_ = k.Load(rawbytes.Provider(config.DefaultConfig), yaml.Parser())
	if *configPath != "" {
		_ = k.Load(file.Provider(*configPath), yaml.Parser())
	}
	return k
}

func main() {
	k := LoadConfig()
	appKonf := config.Config{}

	// Unmarshalling config into struct
	err := k.Unmarshal("", &appKonf)
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	updatedKonf := LoadSecrets(appKonf)
	if err = updatedKonf.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Encoding = "logfmt"
	_ = cfg.Level.UnmarshalText([]byte(k.String("logger.level")))
	cfg.InitialFields = make(map[string]any)
	cfg.InitialFields["host"], _ = os.Hostname()
	cfg.InitialFields["service"] = "waypay-verify"
	cfg.OutputPaths = []string{"stdout"}
	logger, _ := cfg.Build()
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisClient, err := redis.Connect(ctx, updatedKonf.Redis.URI, updatedKonf.Redis.Password)
	if err != nil {
		logger.Fatal("cannot create redis client", zap.Error(err))
	}
	intentStore := redis.NewIntentStore(redisClient, logger)

	var archiver workflow.ReceiptArchiver
	if updatedKonf.Mongo.Enabled {
		mongoClient, merr := mongodb.Connect(ctx, updatedKonf.Mongo.URI)
		if merr != nil {
			logger.Fatal("cannot create mongo client", zap.Error(merr))
		}
		archiver = mongodb.NewReceiptRepository(mongoClient)
	}

	var publisher workflow.ReceiptPublisher
	if updatedKonf.Kafka.Enabled {
		metrics := kprom.NewMetrics("waypay")
		conf := &kafka.ProducerConfig{
			Brokers: updatedKonf.Kafka.Brokers,
			Name:    updatedKonf.Kafka.ClientName,
			Topic:   updatedKonf.Kafka.Topic,
		}
		producer, perr := kafka.NewReceiptProducer(conf, logger, metrics)
		if perr != nil {
			logger.Fatal("cannot create receipt producer", zap.Error(perr))
		}
		defer producer.Close()
		publisher = producer
	}

	gw := gateway.NewClient(gateway.Config{
		BaseURL: updatedKonf.Gateway.BaseURL,
		APIKey:  updatedKonf.Gateway.APIKey,
		Timeout: time.Duration(updatedKonf.Gateway.TimeoutSeconds) * time.Second,
	}, logger)

	sessionConf := workflow.SessionConfig{
		PollInterval:    time.Duration(updatedKonf.Poller.IntervalSeconds) * time.Second,
		PollMaxAttempts: updatedKonf.Poller.MaxAttempts,
		SuccessClose:    time.Duration(updatedKonf.Session.SuccessCloseSeconds) * time.Second,
		CancelClose:     time.Duration(updatedKonf.Session.CancelCloseSeconds) * time.Second,
	}
	session := workflow.NewSession(sessionConf, logger, gw, intentStore, archiver, publisher)

	resumed, err := session.Resume(ctx, models.FlowKind(*flow))
	if err != nil {
		logger.Fatal("cannot resume pending intent", zap.Error(err))
	}
	if !resumed {
		logger.Info("nothing to verify", zap.String("flow", *flow))
		return
	}

	logger.Info("resumed pending transaction", zap.String("tx_ref", session.TxRef()))

	// Ask the backend straight away; the poller keeps watching in parallel.
	if _, err = session.ManualVerify(ctx); err != nil {
		logger.Warn("manual verification failed, falling back to polling", zap.Error(err))
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-session.Done():
			logger.Info("session closed", zap.String("tx_ref", session.TxRef()))
			return
		case <-ctx.Done():
			logger.Warn("interrupted, abandoning verification", zap.String("tx_ref", session.TxRef()))
			_ = session.RequestClose(true)
			<-session.Done()
			return
		case <-ticker.C:
			if session.State() == workflow.StatePolling && session.LastError() != nil {
				// Keep the pending intent; the transaction may still resolve
				// on the operator side and a later run can verify it.
				logger.Error("verification unsuccessful", zap.Error(session.LastError()))
				_ = session.RequestClose(true)
				<-session.Done()
				return
			}
		}
	}
}
