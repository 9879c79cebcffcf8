// The summary job posts yesterday's results to every registered
// channel. Run it from cron a few minutes after the generator.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"wordwebs/internal/config"
	"wordwebs/internal/discord"
	"wordwebs/internal/service"
	"wordwebs/internal/store"
)

func main() {
	date := flag.String("date", "", "summary date (YYYY-MM-DD), defaults to yesterday")
	flag.Parse()

	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	st, err := store.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	bot, err := discord.NewBot(cfg.DiscordBotToken, cfg.DiscordClientID)
	if err != nil {
		log.Fatalf("Failed to create discord bot: %v", err)
	}

	summaries := service.NewSummaryService(st, bot, nil)

	report, err := summaries.SendDaily(ctx, *date)
	if err != nil {
		log.Fatalf("Summary run failed: %v", err)
	}
	if report.ChannelsFailed > 0 {
		log.Fatalf("Summary run finished with %d failed channels", report.ChannelsFailed)
	}
}
