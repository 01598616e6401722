package di

import (
	"time"

	"github.com/dappmarket/marketplace-core/internal/api"
	"github.com/dappmarket/marketplace-core/internal/config"
	"github.com/dappmarket/marketplace-core/internal/event"
	"github.com/dappmarket/marketplace-core/internal/eventlog"
	"github.com/dappmarket/marketplace-core/internal/funds"
	"github.com/dappmarket/marketplace-core/internal/marketplace"
	"github.com/dappmarket/marketplace-core/internal/messenger"
	"github.com/dappmarket/marketplace-core/internal/metadata"
	"github.com/dappmarket/marketplace-core/internal/registry"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/sarulabs/di/v2"
)

var Definitions = []di.Def{
	{
		Name: "store",
		Build: func(ctn di.Container) (interface{}, error) {
			return registry.NewStore(), nil
		},
	},
	{
		Name: "registry",
		Build: func(ctn di.Container) (interface{}, error) {
			return registry.NewAssetRegistry(ctn.Get("store").(*registry.Store)), nil
		},
	},
	{
		Name: "bank",
		Build: func(ctn di.Container) (interface{}, error) {
			return funds.NewBank(), nil
		},
	},
	{
		Name: "emitter",
		Build: func(ctn di.Container) (interface{}, error) {
			return event.NewEmitter(), nil
		},
	},
	{
		Name: "ledger",
		Build: func(ctn di.Container) (interface{}, error) {
			market := config.Get().Market

			opts := make([]marketplace.Option, 0)
			if market.RefundExcess {
				opts = append(opts, marketplace.WithExcessRefund())
			}

			return marketplace.NewLedger(
				ctn.Get("registry").(registry.AssetRegistry),
				ctn.Get("bank").(*funds.Bank),
				ctn.Get("emitter").(*event.Emitter),
				market.Address,
				market.FeeAccount,
				market.FeePercent,
				opts...,
			), nil
		},
	},
	{
		Name: "elastic",
		Build: func(ctn di.Container) (interface{}, error) {
			return eventlog.New()
		},
	},
	{
		Name: "messenger",
		Build: func(ctn di.Container) (interface{}, error) {
			return messenger.NewMessenger(config.Get().Amqp.Uri), nil
		},
	},
	{
		Name: "metadata",
		Build: func(ctn di.Container) (interface{}, error) {
			client := retryablehttp.NewClient()
			client.RetryMax = config.Get().Metadata.Retries
			client.HTTPClient.Timeout = time.Duration(config.Get().Metadata.Timeout) * time.Second
			client.Logger = nil

			return metadata.NewMetadataService(client, config.Get().Metadata.IpfsHosts), nil
		},
	},
	{
		Name: "api",
		Build: func(ctn di.Container) (interface{}, error) {
			return api.NewServer(
				ctn.Get("registry").(registry.AssetRegistry),
				ctn.Get("ledger").(marketplace.Ledger),
				ctn.Get("bank").(*funds.Bank),
				ctn.Get("metadata").(metadata.Service),
			), nil
		},
	},
}

func NewContainer() (di.Container, error) {
	builder, err := di.NewBuilder()
	if err != nil {
		return nil, err
	}

	if err := builder.Add(Definitions...); err != nil {
		return nil, err
	}

	return builder.Build(), nil
}
