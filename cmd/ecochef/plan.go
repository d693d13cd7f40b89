package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"ecochef/internal/app"
	"ecochef/internal/auth"
	"ecochef/internal/locale"
	"ecochef/internal/planner"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	planDays     int
	planDiet     string
	planLanguage string
	planJSON     bool
)

var planCmd = &cobra.Command{
	Use:   "plan <ingredients...>",
	Short: "Generate a meal plan once and print it",
	Example: `  ecochef plan "rice, beans, onion" --days 2 --lang en
  ecochef plan tofu spinach garlic --diet vegan --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		lang, err := locale.Parse(planLanguage)
		if err != nil {
			return err
		}

		rt, err := app.Wire(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer rt.Close()

		req := planner.BuildRequest(strings.Join(args, " "), planDays, planDiet, lang)
		guest := auth.Guest{SessionID: uuid.NewString()}
		view, err := rt.App.Generate(cmd.Context(), guest, req)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if planJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(view.Plan)
		}
		printPlan(out, view.Plan)
		return nil
	},
}

func init() {
	planCmd.Flags().IntVar(&planDays, "days", app.DefaultDays, "Number of days to plan (1-7)")
	planCmd.Flags().StringVar(&planDiet, "diet", "", "Dietary restrictions, free text")
	planCmd.Flags().StringVar(&planLanguage, "lang", string(locale.Default), "Output language: es, en, zh or pt")
	planCmd.Flags().BoolVar(&planJSON, "json", false, "Print the raw plan as JSON")
	rootCmd.AddCommand(planCmd)
}

func printPlan(w io.Writer, plan *planner.PlanResponse) {
	fmt.Fprintf(w, "%s\n", plan.Analysis.Summary)
	if plan.Analysis.MissingMacros != "" {
		fmt.Fprintf(w, "Missing: %s\n", plan.Analysis.MissingMacros)
	}
	stats := plan.NutritionalStats
	fmt.Fprintf(w, "\n%.0f kcal/day  protein %s  carbs %s  fats %s\n",
		stats.AverageDailyCalories, stats.MacroSplit.Protein, stats.MacroSplit.Carbs, stats.MacroSplit.Fats)

	fmt.Fprintln(w, "\nMeals")
	for _, m := range plan.Plan {
		fmt.Fprintf(w, "  %-10s %-10s %s\n", m.Day, m.MealType, m.Meal)
	}

	fmt.Fprintln(w, "\nShopping list")
	for _, c := range plan.ShoppingList {
		fmt.Fprintf(w, "  %s: %s\n", c.Category, strings.Join(c.Items, ", "))
	}

	fmt.Fprintln(w, "\nRecipes")
	for _, r := range plan.Recipes {
		fmt.Fprintf(w, "  %s\n", r.Title)
		for i, step := range r.Steps {
			fmt.Fprintf(w, "    %d. %s\n", i+1, step)
		}
	}
}
