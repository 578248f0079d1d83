package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"polywarp/internal/dataio"
	"polywarp/pkg/registration"
)

type fitFlags struct {
	degree int
	output string
}

// fitResult is the JSON form of a fit.
type fitResult struct {
	Degree     int       `json:"degree"`
	Kx         []float64 `json:"kx"`
	Ky         []float64 `json:"ky"`
	Points     int       `json:"points"`
	RMSError   float64   `json:"rmsError"`
	MeanError  float64   `json:"meanError"`
	MaxError   float64   `json:"maxError"`
	WorstPoint int       `json:"worstPoint"`
	Coincident [][2]int  `json:"coincident,omitempty"`
	Output     string    `json:"output,omitempty"`
}

// NewFitCommand creates the "fit" command.
func NewFitCommand() *cobra.Command {
	flags := &fitFlags{}

	cmd := &cobra.Command{
		Use:   "fit <points.yaml>",
		Short: "Fit a polynomial warp to control points",
		Long: `Fit a polynomial warp mapping destination coordinates to source
coordinates from a YAML control point file, and report how well it
reproduces the points.

Examples:
  polywarp fit points.yaml
  polywarp fit points.yaml --degree 2 -o warp.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFit(cmd, args[0], flags)
		},
	}

	cmd.Flags().IntVarP(&flags.degree, "degree", "d", 0, "Polynomial degree (default from config)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Write the coefficients to this YAML file")

	return cmd
}

func runFit(cmd *cobra.Command, pointsPath string, flags *fitFlags) error {
	env, err := loadEnvironment(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	degree := env.cfg.Fit.Degree
	if flags.degree > 0 {
		degree = flags.degree
	}

	c, m, err := registration.FitFile(pointsPath, degree, env.sink)
	if err != nil {
		return err
	}
	env.log.Info("fit", "Polynomial warp fitted", map[string]interface{}{
		"degree":   c.Degree,
		"rmsError": m.RMSError,
	})

	if flags.output != "" {
		if err := dataio.SaveCoefficients(flags.output, registration.CoefficientFile(c, m)); err != nil {
			return err
		}
	}

	result := fitResult{
		Degree:     c.Degree,
		Kx:         c.Kx,
		Ky:         c.Ky,
		Points:     m.Points,
		RMSError:   m.RMSError,
		MeanError:  m.MeanError,
		MaxError:   m.MaxError,
		WorstPoint: m.WorstPoint,
		Coincident: m.Coincident,
		Output:     flags.output,
	}
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), result)
	}
	printFitText(cmd.OutOrStdout(), result)
	return nil
}

func printFitText(w io.Writer, r fitResult) {
	fmt.Fprintf(w, "Degree: %d (%d control points)\n", r.Degree, r.Points)
	fmt.Fprintf(w, "Kx: %v\n", r.Kx)
	fmt.Fprintf(w, "Ky: %v\n", r.Ky)
	fmt.Fprintf(w, "RMS error: %.6f px\n", r.RMSError)
	fmt.Fprintf(w, "Max error: %.6f px (point %d)\n", r.MaxError, r.WorstPoint)
	for _, pair := range r.Coincident {
		fmt.Fprintf(w, "WARNING: destination points %d and %d coincide\n", pair[0], pair[1])
	}
	if r.Output != "" {
		fmt.Fprintf(w, "Coefficients saved to: %s\n", r.Output)
	}
}
