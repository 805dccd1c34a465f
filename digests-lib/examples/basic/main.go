// ABOUTME: Basic example showing a feed refresh with the Digests library
// ABOUTME: Demonstrates minimal configuration and a second, conditional refresh

package main

import (
	"context"
	"fmt"
	"log"
	"time"

	digests "digests-refresher/digests-lib"
)

func main() {
	// Example 1: Create a client that stores articles in SQLite
	client, err := digests.NewClient(
		digests.WithSQLiteStorage("./articles.db"),
		digests.WithStatePersistence(0),
	)
	if err != nil {
		log.Fatal("Failed to create client:", err)
	}
	defer client.Close()

	subs := []digests.Subscription{
		{URL: "https://news.ycombinator.com/rss"},
		{URL: "https://feeds.arstechnica.com/arstechnica/index"},
		{URL: "https://www.reddit.com/r/golang/.rss", HomePageURL: "https://www.reddit.com/r/golang"},
	}

	// Example 2: Refresh and wait for every feed
	fmt.Println("=== First Refresh ===")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	result, err := client.Refresh(ctx, subs)
	if err != nil {
		log.Printf("Error refreshing feeds: %v\n", err)
		return
	}
	fmt.Printf("Completed %d of %d feeds\n", result.FeedsCompleted, result.Feeds)

	for _, sub := range subs {
		if state, ok := client.State(sub.URL); ok {
			fmt.Printf("- %s etag=%q\n", sub.URL, state.ETag)
		}
	}

	// Example 3: A second refresh sends conditional requests
	fmt.Println("\n=== Second Refresh ===")
	start := time.Now()
	if _, err := client.Refresh(ctx, subs); err != nil {
		log.Printf("Error refreshing feeds: %v\n", err)
		return
	}
	fmt.Printf("Took %v\n", time.Since(start))
	fmt.Printf("Status: %+v\n", client.Status())
}
