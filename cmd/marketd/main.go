package main

import (
	"encoding/json"
	"net/http"

	"github.com/dappmarket/marketplace-core/internal/api"
	"github.com/dappmarket/marketplace-core/internal/config"
	configdi "github.com/dappmarket/marketplace-core/internal/config/di"
	"github.com/dappmarket/marketplace-core/internal/dev"
	"github.com/dappmarket/marketplace-core/internal/entity"
	"github.com/dappmarket/marketplace-core/internal/event"
	"github.com/dappmarket/marketplace-core/internal/eventlog"
	"github.com/dappmarket/marketplace-core/internal/marketplace"
	"github.com/dappmarket/marketplace-core/internal/messenger"
	"github.com/dappmarket/marketplace-core/internal/registry"
	"github.com/sarulabs/di/v2"
	"go.uber.org/zap"
)

var container di.Container

func main() {
	config.Init()

	var err error
	container, err = configdi.NewContainer()
	if err != nil {
		zap.L().With(zap.Error(err)).Fatal("Failed to build container")
	}

	emitter := container.Get("emitter").(*event.Emitter)

	if len(config.Get().ElasticSearch.Hosts) != 0 {
		wireEventLog(emitter)
	}

	if config.Get().Amqp.Uri != "" {
		wireMessenger(emitter)
	}

	server := container.Get("api").(api.Server)

	zap.L().With(
		zap.String("port", config.Get().ApiPort),
		zap.String("marketAddress", config.Get().Market.Address),
		zap.Uint64("feePercent", config.Get().Market.FeePercent),
	).Info("Marketplace started")

	if err := http.ListenAndServe(":"+config.Get().ApiPort, server.Router()); err != nil {
		zap.L().With(zap.Error(err)).Fatal("Failed to start marketplace api")
	}
}

func wireEventLog(emitter *event.Emitter) {
	elastic, err := container.SafeGet("elastic")
	if err != nil {
		zap.L().With(zap.Error(err)).Fatal("Failed to connect to ElasticSearch")
	}
	index := elastic.(eventlog.Index)

	if err := index.InstallMappings(); err != nil {
		zap.L().With(zap.Error(err)).Fatal("Failed to install mappings")
	}

	assetRegistry := container.Get("registry").(registry.AssetRegistry)
	ledger := container.Get("ledger").(marketplace.Ledger)

	persist := func(msg interface{}) {
		ev, ok := msg.(entity.MarketEvent)
		if !ok {
			return
		}

		index.AddIndexRequest(eventlog.MarketEventIndex.Get(), ev)

		// Mirror the current-state tables so the presentation layer can read
		// listings and ownership without touching the core.
		if item, err := ledger.Item(ev.ItemId); err == nil {
			index.AddIndexRequest(eventlog.ItemIndex.Get(), item)
		}
		if asset, err := assetRegistry.Asset(ev.AssetId); err == nil {
			index.AddIndexRequest(eventlog.AssetIndex.Get(), asset)
		}

		index.Persist()
	}

	emitter.AddEventListener(event.ItemOfferedEvent, persist)
	emitter.AddEventListener(event.ItemBoughtEvent, persist)
}

func wireMessenger(emitter *event.Emitter) {
	messengerService := container.Get("messenger").(messenger.MessageService)
	elastic, _ := container.SafeGet("elastic")

	publish := func(msg interface{}) {
		ev, ok := msg.(entity.MarketEvent)
		if !ok {
			return
		}

		body, err := json.Marshal(ev)
		if err != nil {
			return
		}

		if err := messengerService.SendMessage(messenger.MarketEvents, body, false); err != nil {
			zap.L().With(zap.Error(err)).Error("Failed to publish market event")

			if elastic != nil {
				index := elastic.(eventlog.Index)
				index.AddIndexRequest(eventlog.ErrorIndex.Get(), dev.NewError(
					"messenger", "publish", err, map[string]interface{}{"slug": ev.Slug()},
				))
				index.Persist()
			}
		}
	}

	emitter.AddEventListener(event.ItemOfferedEvent, publish)
	emitter.AddEventListener(event.ItemBoughtEvent, publish)
}
