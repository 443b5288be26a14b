package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/bryan-buckman/donorhub/internal/auth"
	"github.com/bryan-buckman/donorhub/internal/catalog"
	"github.com/bryan-buckman/donorhub/internal/database"
	"github.com/bryan-buckman/donorhub/internal/events"
	"github.com/bryan-buckman/donorhub/internal/ingest"
	"github.com/bryan-buckman/donorhub/internal/model"
	"github.com/bryan-buckman/donorhub/internal/relay"
	"github.com/bryan-buckman/donorhub/internal/server"
)

// openStore opens the configured database.
func openStore() (database.Store, error) {
	if cfg.Database.Driver == "postgres" {
		db, err := database.NewPostgres(cfg.Database.URL)
		if err != nil {
			return nil, err
		}
		return db, nil
	}
	db, err := database.New(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("path", cfg.Database.Path).Msg("Opened SQLite database")
	return db, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := openStore()
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			if cfg.Catalog.Seed {
				res, err := database.SeedIfEmpty(db)
				if err != nil {
					return fmt.Errorf("seed catalog: %w", err)
				}
				if res.Camps > 0 || res.Requests > 0 {
					log.Info().Int("camps", res.Camps).Int("requests", res.Requests).Msg("Seeded sample catalog")
				}
			}

			if cfg.Auth.Secret == "" {
				log.Warn().Msg("auth.secret is not set - admin routes will reject every request")
			}

			var pub events.Publisher = events.Noop{}
			if cfg.AMQP.URL != "" {
				rmq, err := events.NewRabbitMQPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
				if err != nil {
					return err
				}
				pub = rmq
			}
			defer pub.Close()

			relayClient := relay.NewClient(cfg.Relay.URL, cfg.Relay.Timeout)
			if !relayClient.Enabled() {
				log.Warn().Msg("relay.url is not set - appointments are stored without notifying organizers")
			}

			deps := server.Deps{
				Store:    db,
				Verifier: auth.NewVerifier(cfg.Auth.Secret, cfg.Auth.Issuer, cfg.Auth.TTL),
				Relay:    relayClient,
				Events:   pub,
				Location: cfg.Location(),
			}
			if cfg.Ingest.Enabled {
				deps.Fetcher = ingest.NewFetcher(db)
				deps.Poller = ingest.NewPoller(db, deps.Fetcher)
			}

			return server.New(deps).Run(cmd.Context(), cfg.Server.Addr)
		},
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the sample camps and urgent requests into empty tables",
		RunE: func(_ *cobra.Command, _ []string) error {
			db, err := openStore()
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			res, err := database.SeedIfEmpty(db)
			if err != nil {
				return err
			}
			fmt.Printf("Seeded %d camps and %d urgent requests\n", res.Camps, res.Requests)
			return nil
		},
	}
}

func tokenCmd() *cobra.Command {
	var role string
	cmd := &cobra.Command{
		Use:   "token <email>",
		Short: "Issue a bearer token",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			token, err := auth.NewVerifier(cfg.Auth.Secret, cfg.Auth.Issuer, cfg.Auth.TTL).Issue(args[0], role)
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", "", `role claim ("admin" grants the admin API)`)
	return cmd
}

func addCriteriaFlags(cmd *cobra.Command, c *catalog.Criteria) {
	cmd.Flags().StringVar(&c.City, "city", "", "only this city")
	cmd.Flags().StringVar(&c.BloodType, "blood-type", "", "only this blood type")
	cmd.Flags().StringVarP(&c.Search, "search", "q", "", "search text")
}

func campsCmd() *cobra.Command {
	var criteria catalog.Criteria
	cmd := &cobra.Command{
		Use:   "camps",
		Short: "List donation camps",
		RunE: func(_ *cobra.Command, _ []string) error {
			db, err := openStore()
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			camps, err := db.GetCamps()
			if err != nil {
				return err
			}
			listing := catalog.ListCamps(camps, criteria, time.Now().In(cfg.Location()))
			printCamps(listing)
			return nil
		},
	}
	addCriteriaFlags(cmd, &criteria)
	return cmd
}

func printCamps(l catalog.CampListing) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDate\tTitle\tCity\tLocation\tBlood types")
	for _, group := range []struct {
		label string
		camps []model.Camp
	}{{"Upcoming", l.Upcoming}, {"Past", l.Past}} {
		fmt.Fprintf(w, "-- %s (%d)\t\t\t\t\t\n", group.label, len(group.camps))
		for _, c := range group.camps {
			types := "any"
			if len(c.BloodTypesNeeded) > 0 {
				parts := make([]string, len(c.BloodTypesNeeded))
				for i, bt := range c.BloodTypesNeeded {
					parts[i] = string(bt)
				}
				types = strings.Join(parts, ",")
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", c.ID, c.Date, c.Title, c.City, c.Location, types)
		}
	}
	w.Flush()
	fmt.Printf("%d of %d camps\n", l.Count, l.Total)
}

func urgentCmd() *cobra.Command {
	var criteria catalog.Criteria
	cmd := &cobra.Command{
		Use:   "urgent",
		Short: "List urgent blood requests, most urgent first",
		RunE: func(_ *cobra.Command, _ []string) error {
			db, err := openStore()
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			reqs, err := db.GetUrgentRequests()
			if err != nil {
				return err
			}
			listing := catalog.ListRequests(reqs, criteria)

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tUrgency\tBlood\tHospital\tLocation\tContact")
			for _, r := range listing.Requests {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s %s\n", r.ID, r.Urgency, r.BloodType, r.Hospital, r.Location, r.ContactName, r.ContactNumber)
			}
			w.Flush()
			fmt.Printf("%d of %d requests\n", listing.Count, listing.Total)
			return nil
		},
	}
	addCriteriaFlags(cmd, &criteria)
	return cmd
}
