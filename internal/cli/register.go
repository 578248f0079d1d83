package cli

import (
	"github.com/spf13/cobra"

	"polywarp/pkg/registration"
)

// NewRegisterCommand creates the "register" command, which fits and
// resamples in one run.
func NewRegisterCommand() *cobra.Command {
	flags := &resampleFlags{}

	cmd := &cobra.Command{
		Use:   "register <points.yaml> <input> <output>",
		Short: "Fit a warp to control points and resample a raster through it",
		Long: `Fit a polynomial warp to the control points and resample the input
raster into the destination frame.

Examples:
  polywarp register points.yaml moving.png registered.png
  polywarp register points.yaml moving.tif out.tif -d 2 -k warp.yaml --preview out.png`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd, &registration.Params{
				PointsFile:       args[0],
				CoefficientsFile: flags.coefficients,
				InputFile:        args[1],
				OutputFile:       args[2],
			}, flags)
		},
	}

	cmd.Flags().IntVarP(&flags.degree, "degree", "d", 0, "Polynomial degree (default from config)")
	cmd.Flags().StringVarP(&flags.coefficients, "coefficients", "k", "", "Also write the fitted coefficients to this file")
	addResampleFlags(cmd, flags)

	return cmd
}
