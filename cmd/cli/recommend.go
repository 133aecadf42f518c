package main

import (
	"encoding/json"
	"fmt"

	"github.com/openbook/backend/internal/models"
	"github.com/spf13/cobra"
)

var recommendLimit int

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Fetch personalized book recommendations",
	Long: `Fetch your personalized recommendation list. Results are based on
your favorite books; without favorites you get general picks.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return getRecommendations()
	},
}

var recommendProfileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show the preference profile behind your recommendations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getRecommendationProfile()
	},
}

var recommendRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Clear the recommendation cache so the next fetch recomputes",
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := apiRequest("DELETE", "/api/v1/recommendations/cache", nil)
		if err != nil {
			return err
		}
		if output == "json" {
			fmt.Println(string(body))
		} else {
			fmt.Println("✓ Recommendation cache cleared")
		}
		return nil
	},
}

func init() {
	recommendCmd.Flags().IntVar(&recommendLimit, "limit", 15, "Maximum number of recommendations")
	recommendCmd.AddCommand(recommendProfileCmd)
	recommendCmd.AddCommand(recommendRefreshCmd)
}

func getRecommendations() error {
	body, err := apiRequest("GET", fmt.Sprintf("/api/v1/recommendations?limit=%d", recommendLimit), nil)
	if err != nil {
		return err
	}

	if output == "json" {
		fmt.Println(string(body))
		return nil
	}

	var result struct {
		Recommendations []models.RecommendedBook `json:"recommendations"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if len(result.Recommendations) == 0 {
		fmt.Println("No recommendations yet - try favoriting some books first")
		return nil
	}

	for i, book := range result.Recommendations {
		authors := "unknown"
		if len(book.AuthorNames) > 0 {
			authors = book.AuthorNames[0]
		}
		fmt.Printf("%2d. %s by %s", i+1, book.Title, authors)
		if book.PublishYear > 0 {
			fmt.Printf(" (%d)", book.PublishYear)
		}
		fmt.Printf("\n    %s\n", book.Reason)
	}
	return nil
}

func getRecommendationProfile() error {
	body, err := apiRequest("GET", "/api/v1/recommendations/profile", nil)
	if err != nil {
		return err
	}

	if output == "json" {
		fmt.Println(string(body))
		return nil
	}

	var profile struct {
		TopAuthors []struct {
			Author string `json:"author"`
			Count  int    `json:"count"`
		} `json:"top_authors"`
		TopSubjects []struct {
			Subject string `json:"subject"`
			Count   int    `json:"count"`
		} `json:"top_subjects"`
		TopDecades []struct {
			Decade int `json:"decade"`
			Count  int `json:"count"`
		} `json:"top_decades"`
		TotalAnalyzed int `json:"total_analyzed"`
	}
	if err := json.Unmarshal(body, &profile); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	fmt.Printf("Analyzed %d favorite(s)\n", profile.TotalAnalyzed)
	if len(profile.TopAuthors) > 0 {
		fmt.Println("Top authors:")
		for _, a := range profile.TopAuthors {
			fmt.Printf("  %s (%d)\n", a.Author, a.Count)
		}
	}
	if len(profile.TopSubjects) > 0 {
		fmt.Println("Top subjects:")
		for _, s := range profile.TopSubjects {
			fmt.Printf("  %s (%d)\n", s.Subject, s.Count)
		}
	}
	if len(profile.TopDecades) > 0 {
		fmt.Println("Top decades:")
		for _, d := range profile.TopDecades {
			fmt.Printf("  %ds (%d)\n", d.Decade, d.Count)
		}
	}
	return nil
}
