package main

import (
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"tara"
	"tara/calculator"
)

type profileFlags struct {
	weight, height, deficit float64
	bodyFat, leanMass       float64
	age, meals              int
	sex, activity           string
}

func addProfileFlags(cmd *cobra.Command) *profileFlags {
	f := &profileFlags{}
	cmd.Flags().Float64Var(&f.weight, "weight", 0, "body weight in kg")
	cmd.Flags().Float64Var(&f.height, "height", 0, "height in cm")
	cmd.Flags().IntVar(&f.age, "age", 0, "age in years")
	cmd.Flags().StringVar(&f.sex, "sex", "", "male or female")
	cmd.Flags().StringVar(&f.activity, "activity", string(calculator.Moderate), "sedentary, light, moderate, active or very_active")
	cmd.Flags().Float64Var(&f.deficit, "deficit", calculator.DefaultDeficitPercent, "calorie deficit as a fraction of TDEE")
	cmd.Flags().IntVar(&f.meals, "meals", calculator.DefaultMealsPerDay, "meals per day")
	cmd.Flags().Float64Var(&f.bodyFat, "body-fat", 0, "body fat percent")
	cmd.Flags().Float64Var(&f.leanMass, "lean-mass", 0, "lean mass in kg")
	_ = cmd.MarkFlagRequired("weight")
	_ = cmd.MarkFlagRequired("height")
	_ = cmd.MarkFlagRequired("age")
	_ = cmd.MarkFlagRequired("sex")
	return f
}

// input returns the validated calculator input. Body composition flags are
// only set when given.
func (f *profileFlags) input(cmd *cobra.Command) (calculator.Input, error) {
	in := calculator.Input{
		WeightKg:       f.weight,
		HeightCm:       f.height,
		Age:            f.age,
		Sex:            calculator.Sex(f.sex),
		ActivityLevel:  calculator.ActivityLevel(f.activity),
		DeficitPercent: f.deficit,
		MealsPerDay:    f.meals,
	}
	if cmd.Flags().Changed("body-fat") {
		v := f.bodyFat
		in.BodyFatPercent = &v
	}
	if cmd.Flags().Changed("lean-mass") {
		v := f.leanMass
		in.LeanMassKg = &v
	}
	in = in.WithDefaults()
	return in, in.Validate()
}

func profileCmd() *cobra.Command {
	var (
		dump  bool
		flags *profileFlags
	)
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Calculate daily calorie, macro and per-meal targets",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := flags.input(cmd)
			if err != nil {
				return err
			}
			p := calculator.Calculate(in)
			if dump {
				tara.Dump(os.Stdout, "profile", p)
				return nil
			}
			if viper.GetBool("json") {
				return printJSON(p)
			}
			printProfile(p)
			return nil
		},
	}
	flags = addProfileFlags(cmd)
	cmd.Flags().BoolVar(&dump, "dump", false, "dump the profile structure")
	return cmd
}

func printProfile(p calculator.Profile) {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendRows([]table.Row{
		{"BMR", p.BMR},
		{"TDEE", p.TDEE},
		{"Deficit", p.DeficitPercent},
		{"Target kcal", p.TargetCalories},
		{"Protein g", p.Macros.ProteinG},
		{"Fat g", p.Macros.FatG},
		{"Carbs g", p.Macros.CarbsG},
	})
	if bc := p.BodyComposition; bc != nil {
		tw.AppendRow(table.Row{"Lean mass kg", bc.LeanMassKg})
		tw.AppendRow(table.Row{"Fat mass kg", bc.FatMassKg})
	}
	tw.Render()

	mt := table.NewWriter()
	mt.SetOutputMirror(os.Stdout)
	mt.AppendHeader(table.Row{"Meal", "%", "kcal", "Protein g", "Carbs g", "Fat g"})
	for _, m := range p.Meals {
		mt.AppendRow(table.Row{m.Name, m.Percent, m.Calories, m.ProteinG, m.CarbsG, m.FatG})
	}
	mt.AppendFooter(table.Row{"Total", "", p.TargetCalories, p.Macros.ProteinG, p.Macros.CarbsG, p.Macros.FatG})
	mt.Render()
}
