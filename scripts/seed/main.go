// Package main implements a standalone seed script that populates a running
// reviews service with realistic test data over HTTP: top-level reviews with
// varying ratings and media, merchant replies, a few hidden and archived
// reviews, and mixed read state.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"time"
)

// --------------------------------------------------------------------------
// Configuration helpers
// --------------------------------------------------------------------------

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// --------------------------------------------------------------------------
// HTTP helpers
// --------------------------------------------------------------------------

func doJSON(method, url, shop string, body any) (map[string]any, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shop-Domain", shop)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%s %s: status %d: %s", method, url, resp.StatusCode, string(respBody))
	}

	var decoded map[string]any
	if len(respBody) > 0 {
		if err := json.Unmarshal(respBody, &decoded); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
	}
	return decoded, nil
}

func dataField(resp map[string]any, key string) (string, bool) {
	data, ok := resp["data"].(map[string]any)
	if !ok {
		return "", false
	}
	v, ok := data[key].(string)
	return v, ok
}

// --------------------------------------------------------------------------
// Sample data
// --------------------------------------------------------------------------

var products = []struct {
	ID   string
	Name string
}{
	{"a1f0c9de-1111-4000-8000-000000000001", "Aurora Desk Lamp"},
	{"a1f0c9de-1111-4000-8000-000000000002", "Birchwood Coffee Table"},
	{"a1f0c9de-1111-4000-8000-000000000003", "Cedar Scented Candle"},
	{"a1f0c9de-1111-4000-8000-000000000004", "Driftwood Wall Shelf"},
}

var customers = []string{
	"Alex Morgan", "Sam Lee", "Jordan Kim", "Riley Chen", "", "Casey Novak",
}

var comments = []string{
	"Exactly as described, arrived early.",
	"Quality is better than I expected for the price.",
	"Took two weeks to ship, but the product itself is fine.",
	"Color looks different in person. Slightly disappointed.",
	"Would definitely order again.",
	"The packaging was damaged but the item survived.",
}

var mediaURLs = []string{
	"https://cdn.example.com/reviews/photo-1.jpg",
	"https://cdn.example.com/reviews/photo-2.jpg",
	"https://cdn.example.com/reviews/unboxing.mp4",
}

func randomRating() int {
	// Skew toward 4-5 stars, as real storefronts do.
	weights := []int{1, 1, 2, 4, 7}
	total := 0
	for _, w := range weights {
		total += w
	}
	n := rand.Intn(total)
	for i, w := range weights {
		if n < w {
			return i + 1
		}
		n -= w
	}
	return 5
}

func randomMedia() []map[string]string {
	if rand.Intn(3) != 0 {
		return nil
	}
	url := mediaURLs[rand.Intn(len(mediaURLs))]
	mediaType := "IMAGE"
	if url[len(url)-4:] == ".mp4" {
		mediaType = "VIDEO"
	}
	return []map[string]string{{"media_url": url, "media_type": mediaType}}
}

// --------------------------------------------------------------------------
// Seeding
// --------------------------------------------------------------------------

func main() {
	rand.Seed(time.Now().UnixNano())

	base := getEnv("REVIEWS_BASE_URL", "http://localhost:8007")
	shop := getEnv("SEED_SHOP", "seed-demo.myshopify.com")
	count := 40

	log.Printf("seeding %d reviews into %s for shop %s", count, base, shop)

	reviewsURL := base + "/api/v1/reviews"
	var reviewIDs []string

	for i := 0; i < count; i++ {
		product := products[rand.Intn(len(products))]
		body := map[string]any{
			"product_id":    product.ID,
			"product_name":  product.Name,
			"customer_name": customers[rand.Intn(len(customers))],
			"rating":        randomRating(),
			"comment":       comments[rand.Intn(len(comments))],
			"media":         randomMedia(),
		}

		resp, err := doJSON(http.MethodPost, reviewsURL, shop, body)
		if err != nil {
			log.Fatalf("create review: %v", err)
		}
		id, ok := dataField(resp, "id")
		if !ok {
			log.Fatalf("create review: no id in response")
		}
		reviewIDs = append(reviewIDs, id)
	}
	log.Printf("created %d top-level reviews", len(reviewIDs))

	// Reply to roughly a quarter of the reviews.
	replied := 0
	for _, id := range reviewIDs {
		if rand.Intn(4) != 0 {
			continue
		}
		// A reply targets the same product as its parent.
		resp, err := doJSON(http.MethodGet, reviewsURL+"/"+id, shop, nil)
		if err != nil {
			log.Fatalf("get review %s: %v", id, err)
		}
		productID, _ := dataField(resp, "product_id")

		_, err = doJSON(http.MethodPost, reviewsURL, shop, map[string]any{
			"product_id": productID,
			"comment":    "Thanks for the feedback! Reach out to support if anything else comes up.",
			"reply_to":   id,
		})
		if err != nil {
			log.Fatalf("create reply for %s: %v", id, err)
		}
		replied++
	}
	log.Printf("created %d merchant replies", replied)

	// Hide a few reviews and archive one.
	hidden := 0
	for _, id := range reviewIDs {
		if rand.Intn(10) != 0 {
			continue
		}
		_, err := doJSON(http.MethodPut, reviewsURL+"/"+id+"/status", shop, map[string]any{
			"status":      "HIDDEN",
			"hide_reason": "spam",
		})
		if err != nil {
			log.Fatalf("hide review %s: %v", id, err)
		}
		hidden++
	}
	if len(reviewIDs) > 0 {
		if _, err := doJSON(http.MethodPut, reviewsURL+"/"+reviewIDs[0]+"/status", shop, map[string]any{
			"status": "ARCHIVED",
		}); err != nil {
			log.Fatalf("archive review: %v", err)
		}
	}
	log.Printf("hid %d reviews, archived 1", hidden)

	// Pin one of the remaining reviews.
	if len(reviewIDs) > 1 {
		if _, err := doJSON(http.MethodPut, reviewsURL+"/"+reviewIDs[1]+"/pin", shop, nil); err != nil {
			log.Fatalf("pin review: %v", err)
		}
		log.Printf("pinned review %s", reviewIDs[1])
	}

	// Mark half of the reviews read.
	var toRead []string
	for i, id := range reviewIDs {
		if i%2 == 0 {
			toRead = append(toRead, id)
		}
	}
	if len(toRead) > 0 {
		if _, err := doJSON(http.MethodPut, reviewsURL+"/read?isRead=true", shop, map[string]any{
			"ids": toRead,
		}); err != nil {
			log.Fatalf("mark reviews read: %v", err)
		}
		log.Printf("marked %d reviews read", len(toRead))
	}

	log.Println("seed complete")
}
