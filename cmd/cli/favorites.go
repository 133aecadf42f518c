package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"
)

var favoritesCmd = &cobra.Command{
	Use:   "favorites",
	Short: "Manage your favorite books",
	RunE: func(cmd *cobra.Command, args []string) error {
		return listFavorites()
	},
}

var favoritesAddCmd = &cobra.Command{
	Use:   "add <book-id> <title>",
	Short: "Favorite a book by its OpenLibrary work ID",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		payload := map[string]string{
			"book_id":    args[0],
			"book_title": args[1],
		}
		body, err := apiRequest("POST", "/api/v1/favorites", payload)
		if err != nil {
			return err
		}
		if output == "json" {
			fmt.Println(string(body))
		} else {
			fmt.Printf("✓ Favorited %s\n", args[1])
		}
		return nil
	},
}

var favoritesRemoveCmd = &cobra.Command{
	Use:   "remove <book-id>",
	Short: "Remove a book from your favorites",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := apiRequest("DELETE", "/api/v1/favorites/"+args[0], nil)
		if err != nil {
			return err
		}
		if output == "json" {
			fmt.Println(string(body))
		} else {
			fmt.Printf("✓ Removed %s\n", args[0])
		}
		return nil
	},
}

func init() {
	favoritesCmd.AddCommand(favoritesAddCmd)
	favoritesCmd.AddCommand(favoritesRemoveCmd)
}

func listFavorites() error {
	body, err := apiRequest("GET", "/api/v1/favorites", nil)
	if err != nil {
		return err
	}

	if output == "json" {
		fmt.Println(string(body))
		return nil
	}

	var result struct {
		Favorites []struct {
			BookID    string `json:"book_id"`
			BookTitle string `json:"book_title"`
		} `json:"favorites"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if len(result.Favorites) == 0 {
		fmt.Println("No favorites yet")
		return nil
	}
	for _, f := range result.Favorites {
		fmt.Printf("%s  %s\n", f.BookID, f.BookTitle)
	}
	return nil
}

// apiRequest makes an authenticated call against the OpenBook API and
// returns the response body, turning non-2xx statuses into errors.
func apiRequest(method, path string, payload interface{}) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		bodyBytes, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequest(method, apiURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+authToken)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp map[string]interface{}
		json.Unmarshal(body, &errResp)
		if msg, ok := errResp["error"].(string); ok {
			return nil, fmt.Errorf("API error: %s", msg)
		}
		return nil, fmt.Errorf("API error: status %d", resp.StatusCode)
	}

	return body, nil
}
