package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"tara"
	"tara/foods"
)

func foodsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "foods", Short: "Query the food composition table"}
	cmd.AddCommand(foodsSearchCmd())
	cmd.AddCommand(foodsClassesCmd())
	return cmd
}

func openFoods(cmd *cobra.Command) (*foods.DB, error) {
	var cfg tara.FoodsConfig
	if err := decodeEnv(&cfg); err != nil {
		return nil, err
	}
	return loadFoods(cmd.Context(), cfg)
}

func foodsSearchCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "search TERM...",
		Short: "Fuzzy search foods by name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openFoods(cmd)
			if err != nil {
				return err
			}
			matches := db.Search(strings.Join(args, " "), limit)
			if viper.GetBool("json") {
				return printJSON(matches)
			}
			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.AppendHeader(table.Row{"Code", "Name", "Score", "kcal", "Protein g", "Carbs g", "Fat g"})
			for _, m := range matches {
				n := m.Food.Per100g
				tw.AppendRow(table.Row{m.Food.Code, m.Food.Name, fmt.Sprintf("%.2f", m.Score), n.Calories, n.ProteinG, n.CarbsG, n.FatG})
			}
			tw.Render()
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", foods.DefaultSearchLimit, "maximum results")
	return cmd
}

func foodsClassesCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "classes [CLASS]",
		Short: "List food classes, or the foods in one class",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openFoods(cmd)
			if err != nil {
				return err
			}
			if len(args) == 0 {
				classes := db.Classes()
				if viper.GetBool("json") {
					return printJSON(classes)
				}
				for _, c := range classes {
					fmt.Println(c)
				}
				return nil
			}

			list := db.ByClass(args[0], limit)
			if viper.GetBool("json") {
				return printJSON(list)
			}
			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.AppendHeader(table.Row{"Code", "Name", "Class", "kcal"})
			for _, f := range list {
				tw.AppendRow(table.Row{f.Code, f.Name, f.Class, f.Per100g.Calories})
			}
			tw.Render()
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", foods.DefaultClassLimit, "maximum foods listed for a class")
	return cmd
}
