package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"airgap/internal/crypto"
	"airgap/internal/metadata"
	"airgap/internal/signer"
	"airgap/internal/substrate"
	"airgap/internal/txrequest"
)

var (
	bundleFlag  = &cli.StringFlag{Name: "bundle", Aliases: []string{"b"}, Usage: "chain bundle produced by fetch", Required: true}
	requestFlag = &cli.StringFlag{Name: "request", Aliases: []string{"r"}, Usage: "transaction request file", Required: true}
	accountFlag = &cli.StringFlag{Name: "account", Usage: "SS58 address of the signing account, defaults to AIRGAP_ACCOUNT then the bundle's"}
	outFlag     = &cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "write the result to this file instead of stdout"}
)

func (e *env) service() (*signer.Service, error) {
	rt, err := e.cfg.Chain()
	if err != nil {
		return nil, err
	}
	return signer.New(signer.Options{
		Runtime:      rt,
		MortalPeriod: e.cfg.MortalPeriod,
		Immortal:     e.cfg.Immortal,
	}, e.metrics, e.log), nil
}

func (e *env) inputs(c *cli.Context) (*txrequest.Request, *txrequest.Bundle, error) {
	bundle, err := txrequest.LoadBundle(c.String("bundle"))
	if err != nil {
		return nil, nil, err
	}
	req, err := txrequest.LoadRequest(c.String("request"))
	if err != nil {
		return nil, nil, err
	}
	return req, bundle, nil
}

func output(c *cli.Context, text string) error {
	if path := c.String("out"); path != "" {
		return os.WriteFile(path, []byte(text+"\n"), 0644)
	}
	_, err := fmt.Fprintln(c.App.Writer, text)
	return err
}

// argOrFile returns the first argument, or the trimmed contents of --file.
func argOrFile(c *cli.Context, what string) (string, error) {
	if path := c.String("file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", what, err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	if c.NArg() != 1 {
		return "", fmt.Errorf("expected one %s argument or --file", what)
	}
	return c.Args().First(), nil
}

func callIndexCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:      "call-index",
		Usage:     "look up the call index of PALLET CALL in the bundle's metadata",
		ArgsUsage: "PALLET CALL",
		Flags:     []cli.Flag{bundleFlag},
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return fmt.Errorf("expected PALLET CALL")
			}
			bundle, err := txrequest.LoadBundle(c.String("bundle"))
			if err != nil {
				return err
			}
			meta, err := bundle.DecodeMetadata()
			if err != nil {
				return err
			}
			index, err := meta.FindCallIndex(c.Args().Get(0), c.Args().Get(1))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(c.App.Writer, "%s.%s %s 0x%02x%02x\n",
				c.Args().Get(0), c.Args().Get(1), index, index.Module, index.Call)
			return err
		},
	}
}

func payloadCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "payload",
		Usage: "print the bytes an external signer must sign",
		Flags: []cli.Flag{bundleFlag, requestFlag, accountFlag, outFlag},
		Action: func(c *cli.Context) error {
			req, bundle, err := e.inputs(c)
			if err != nil {
				return err
			}
			svc, err := e.service()
			if err != nil {
				return err
			}
			account, err := e.cfg.ResolveAccount(c.String("account"))
			if err != nil {
				return err
			}
			payload, err := svc.Payload(req, bundle, account)
			if err != nil {
				return err
			}
			e.log.WithField("length", payload.Length).WithField("hashed", payload.Hashed).Info("Built signing payload")
			return output(c, payload.SigningBytes)
		},
	}
}

func signCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "sign",
		Usage: "sign a request with the configured key and print the extrinsic",
		Flags: []cli.Flag{bundleFlag, requestFlag, outFlag},
		Action: func(c *cli.Context) error {
			req, bundle, err := e.inputs(c)
			if err != nil {
				return err
			}
			key, err := e.cfg.Signer()
			if err != nil {
				return err
			}
			svc, err := e.service()
			if err != nil {
				return err
			}
			signed, err := svc.Sign(req, bundle, key)
			if err != nil {
				return err
			}
			return output(c, signed.Hex)
		},
	}
}

func assembleCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "assemble",
		Usage: "combine a request with a signature made elsewhere",
		Flags: []cli.Flag{
			bundleFlag, requestFlag, accountFlag, outFlag,
			&cli.StringFlag{Name: "signature", Usage: "hex signature over the payload", Required: true},
		},
		Action: func(c *cli.Context) error {
			req, bundle, err := e.inputs(c)
			if err != nil {
				return err
			}
			scheme, err := crypto.ParseScheme(e.cfg.Scheme)
			if err != nil {
				return err
			}
			svc, err := e.service()
			if err != nil {
				return err
			}
			account, err := e.cfg.ResolveAccount(c.String("account"))
			if err != nil {
				return err
			}
			signed, err := svc.Assemble(req, bundle, account, scheme, c.String("signature"))
			if err != nil {
				return err
			}
			return output(c, signed.Hex)
		},
	}
}

func decodeCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:      "decode",
		Usage:     "show what an extrinsic does",
		ArgsUsage: "HEX",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bundle", Aliases: []string{"b"}, Usage: "bundle whose metadata names the call"},
			&cli.StringFlag{Name: "file", Usage: "read the extrinsic from this file"},
		},
		Action: func(c *cli.Context) error {
			xt, err := argOrFile(c, "extrinsic")
			if err != nil {
				return err
			}
			var meta *metadata.Metadata
			if path := c.String("bundle"); path != "" {
				bundle, err := txrequest.LoadBundle(path)
				if err != nil {
					return err
				}
				if meta, err = bundle.DecodeMetadata(); err != nil {
					return err
				}
			}
			svc, err := e.service()
			if err != nil {
				return err
			}
			d, err := svc.Decode(xt, meta)
			if err != nil {
				return err
			}
			return printDecoded(c, d)
		},
	}
}

func printDecoded(c *cli.Context, d *signer.Decoded) error {
	w := c.App.Writer
	call := d.Index
	if d.Pallet != "" {
		call = fmt.Sprintf("%s.%s (%s)", d.Pallet, d.Call, d.Index)
	}
	fmt.Fprintf(w, "hash:   %s\n", d.Hash)
	fmt.Fprintf(w, "call:   %s\n", call)
	for _, k := range []string{"dest", "amount", "planck", "remark", "raw"} {
		if v, ok := d.Args[k]; ok {
			fmt.Fprintf(w, "  %s: %s\n", k, v)
		}
	}
	if !d.Signed {
		_, err := fmt.Fprintln(w, "signed: no")
		return err
	}
	fmt.Fprintf(w, "signer: %s (%s)\n", d.Signer, d.Scheme)
	fmt.Fprintf(w, "nonce:  %d\n", d.Nonce)
	fmt.Fprintf(w, "tip:    %s\n", d.Tip)
	_, err := fmt.Fprintf(w, "era:    %s\n", d.Era)
	return err
}

func fetchCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "fetch",
		Usage: "collect the chain bundle from a node (online)",
		Flags: []cli.Flag{
			accountFlag,
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "bundle file to write", Required: true},
		},
		Action: func(c *cli.Context) error {
			account, err := e.cfg.ResolveAccount(c.String("account"))
			if err != nil {
				return err
			}
			client, err := substrate.NewClient(substrate.Config{
				Endpoint: e.cfg.SubstrateURL,
				Timeout:  e.cfg.FetchTimeout,
			}, e.log)
			if err != nil {
				return err
			}
			defer client.Close()

			bundle, err := client.FetchBundle(c.Context, e.cfg.Runtime, account)
			if err != nil {
				return err
			}
			return bundle.Save(c.String("out"))
		},
	}
}

func submitCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:      "submit",
		Usage:     "submit a signed extrinsic to a node (online)",
		ArgsUsage: "HEX",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Usage: "read the extrinsic from this file"},
			&cli.BoolFlag{Name: "watch", Usage: "follow the extrinsic until it is in a block"},
			&cli.BoolFlag{Name: "finalized", Usage: "with --watch, wait for finality"},
		},
		Action: func(c *cli.Context) error {
			xt, err := argOrFile(c, "extrinsic")
			if err != nil {
				return err
			}

			if c.Bool("watch") {
				ctx, cancel := context.WithTimeout(c.Context, e.cfg.WatchTimeout)
				defer cancel()
				status, err := substrate.NewWatcher(e.cfg.SubstrateURL, e.log).
					SubmitAndWatch(ctx, xt, c.Bool("finalized"), nil)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(c.App.Writer, "%s %s\n", status.State, status.Block)
				return err
			}

			_, err = e.cfg.ResolveAccount(c.String("account"))
			if err != nil {
				return err
			}
			client, err := substrate.NewClient(substrate.Config{
				Endpoint: e.cfg.SubstrateURL,
				Timeout:  e.cfg.FetchTimeout,
			}, e.log)
			if err != nil {
				return err
			}
			defer client.Close()

			hash, err := client.Submit(c.Context, xt)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(c.App.Writer, hash)
			return err
		},
	}
}
