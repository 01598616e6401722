package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"net/http"
	"os"

	"github.com/dappmarket/marketplace-core/internal/api"
	"github.com/dappmarket/marketplace-core/internal/config"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

var client *retryablehttp.Client

func main() {
	config.Init()

	client = retryablehttp.NewClient()
	client.Logger = nil

	app := &cli.App{
		Name:  "marketctl",
		Usage: "operate the marketplace settlement core",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Value: config.Get().ApiHost, Usage: "marketplace api host"},
			&cli.StringFlag{Name: "from", Value: "", Usage: "caller principal address"},
		},
		Commands: []*cli.Command{
			{
				Name:   "mint",
				Usage:  "mint a new asset owned by the caller",
				Action: mint,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "uri", Value: "", Usage: "metadata uri, stored verbatim"},
				},
			},
			{
				Name:   "approve",
				Usage:  "grant or revoke blanket transfer approval for an operator",
				Action: approve,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "operator", Value: "", Usage: "operator principal"},
					&cli.BoolFlag{Name: "revoke", Usage: "revoke instead of grant"},
				},
			},
			{
				Name:   "list",
				Usage:  "list an asset for sale at a fixed price",
				Action: listItem,
				Flags: []cli.Flag{
					&cli.Uint64Flag{Name: "asset", Usage: "asset id"},
					&cli.Uint64Flag{Name: "price", Usage: "price in smallest currency unit"},
				},
			},
			{
				Name:   "price",
				Usage:  "show the total price (price plus market fee) of an item",
				Action: totalPrice,
				Flags: []cli.Flag{
					&cli.Uint64Flag{Name: "item", Usage: "item id"},
				},
			},
			{
				Name:   "buy",
				Usage:  "purchase an item",
				Action: buy,
				Flags: []cli.Flag{
					&cli.Uint64Flag{Name: "item", Usage: "item id"},
					&cli.Uint64Flag{Name: "payment", Usage: "payment in smallest currency unit"},
				},
			},
			{
				Name:   "items",
				Usage:  "show all marketplace items",
				Action: items,
			},
			{
				Name:   "faucet",
				Usage:  "fund the caller's account on the development bank",
				Action: faucet,
				Flags: []cli.Flag{
					&cli.Uint64Flag{Name: "amount", Usage: "amount in smallest currency unit"},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		zap.L().With(zap.Error(err)).Fatal("Failed to run marketctl")
	}
}

func mint(c *cli.Context) error {
	return post(c, "/assets", map[string]interface{}{"metadataUri": c.String("uri")})
}

func approve(c *cli.Context) error {
	return post(c, "/approvals", map[string]interface{}{
		"operator": c.String("operator"),
		"approved": !c.Bool("revoke"),
	})
}

func listItem(c *cli.Context) error {
	return post(c, "/items", map[string]interface{}{
		"assetId": c.Uint64("asset"),
		"price":   c.Uint64("price"),
	})
}

func totalPrice(c *cli.Context) error {
	return get(c, fmt.Sprintf("/items/%d/total-price", c.Uint64("item")))
}

func buy(c *cli.Context) error {
	return post(c, fmt.Sprintf("/items/%d/purchase", c.Uint64("item")), map[string]interface{}{
		"payment": c.Uint64("payment"),
	})
}

func items(c *cli.Context) error {
	return get(c, "/items")
}

func faucet(c *cli.Context) error {
	return post(c, "/faucet", map[string]interface{}{"amount": c.Uint64("amount")})
}

func get(c *cli.Context, path string) error {
	req, err := retryablehttp.NewRequest("GET", c.String("host")+path, nil)
	if err != nil {
		return err
	}

	return send(c, req)
}

func post(c *cli.Context, path string, body map[string]interface{}) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := retryablehttp.NewRequest("POST", c.String("host")+path, bytes.NewReader(encoded))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	return send(c, req)
}

func send(c *cli.Context, req *retryablehttp.Request) error {
	if from := c.String("from"); from != "" {
		req.Header.Set(api.CallerHeader, from)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return errors.New(string(bytes.TrimSpace(body)))
	}

	if len(body) != 0 {
		fmt.Println(string(bytes.TrimSpace(body)))
	}

	return nil
}
