// Command ldapsearch runs a single paged search against an LDAP server
// and prints the resulting entries, roughly in the shape of the
// standard OpenLDAP ldapsearch(1) tool.
package main

import (
	"crypto/tls"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/howeyc/gopass"
	"github.com/urfave/cli/v2"

	"github.com/nexusdir/ldapclient/ldap"
)

func main() {
	app := &cli.App{
		Name:      "ldapsearch",
		Usage:     "search an LDAP directory",
		ArgsUsage: "<filter> [attributes...]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "optional TOML file with url/binddn/basedn defaults"},
			&cli.StringFlag{Name: "H", Usage: "LDAP URL, e.g. ldap://host:389"},
			&cli.StringFlag{Name: "D", Usage: "bind DN"},
			&cli.StringFlag{Name: "w", Usage: "bind password"},
			&cli.BoolFlag{Name: "W", Usage: "prompt for bind password"},
			&cli.StringFlag{Name: "b", Usage: "search base DN"},
			&cli.StringFlag{Name: "s", Value: "sub", Usage: "search scope: base, one, sub"},
			&cli.BoolFlag{Name: "Z", Usage: "issue StartTLS after connecting"},
			&cli.BoolFlag{Name: "insecure", Usage: "skip TLS certificate verification"},
			&cli.DurationFlag{Name: "timeout", Value: 30 * time.Second, Usage: "per-request timeout"},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "ldapsearch:", err)
		os.Exit(1)
	}
}

func run(ctx *cli.Context) error {
	defaults, err := loadFileDefaults(ctx.String("config"))
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}

	addr := firstNonEmpty(ctx.String("H"), defaults.URL)
	if addr == "" {
		return fmt.Errorf("no LDAP URL given (-H or config file)")
	}
	bindDN := firstNonEmpty(ctx.String("D"), defaults.BindDN)
	baseDN := firstNonEmpty(ctx.String("b"), defaults.BaseDN)

	scope, err := parseScope(ctx.String("s"))
	if err != nil {
		return err
	}

	if ctx.Args().Len() < 1 {
		return fmt.Errorf("a search filter is required")
	}
	filterString := ctx.Args().First()
	attrs := ctx.Args().Tail()

	client, err := ldap.Dial(addr, ldap.ClientOptions{
		Timeout:   ctx.Duration("timeout"),
		TLSConfig: &tls.Config{InsecureSkipVerify: ctx.Bool("insecure")},
	})
	if err != nil {
		return fmt.Errorf("connecting: %w", err)
	}
	defer client.Unbind()

	if ctx.Bool("Z") {
		if err := client.StartTLS(&tls.Config{InsecureSkipVerify: ctx.Bool("insecure")}); err != nil {
			return fmt.Errorf("StartTLS: %w", err)
		}
	}

	if bindDN != "" {
		password, err := resolvePassword(ctx)
		if err != nil {
			return err
		}
		if _, err := client.Bind(ldap.NewSimpleBindRequest(bindDN, password)); err != nil {
			return fmt.Errorf("bind: %w", err)
		}
	}

	filter, err := ldap.ParseFilterString(filterString)
	if err != nil {
		return fmt.Errorf("parsing filter: %w", err)
	}

	resp, err := client.Search(&ldap.SearchRequest{
		BaseDN:                baseDN,
		Scope:                 scope,
		Filter:                filter,
		Attributes:            attrs,
		ReturnAttributeValues: true,
		Paged:                 true,
	})
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	for _, entry := range resp.Entries {
		fmt.Printf("dn: %s\n", entry.DN)
		for name, values := range entry.Attributes {
			for _, v := range values {
				fmt.Printf("%s: %s\n", name, v)
			}
		}
		fmt.Println()
	}
	return nil
}

func resolvePassword(ctx *cli.Context) ([]byte, error) {
	if ctx.Bool("W") {
		fmt.Print("Enter LDAP Password: ")
		return gopass.GetPasswd()
	}
	return []byte(ctx.String("w")), nil
}

func parseScope(s string) (int, error) {
	switch strings.ToLower(s) {
	case "base":
		return ldap.ScopeBaseObject, nil
	case "one":
		return ldap.ScopeSingleLevel, nil
	case "sub", "":
		return ldap.ScopeWholeSubtree, nil
	default:
		return 0, fmt.Errorf("unknown scope %q (want base, one, or sub)", s)
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
