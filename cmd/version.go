package cmd

import (
	"fmt"
	"runtime"

	"github.com/haierkeys/wicky/internal/app"

	"github.com/spf13/cobra"
)

func init() {
	var short bool
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version info and exit // 打印版本信息并退出",
		Run: func(cmd *cobra.Command, args []string) {
			if short {
				fmt.Fprintln(cmd.OutOrStdout(), app.Version)
				return
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s v%s (git %s, built %s, %s %s/%s)\n",
				app.Name, app.Version, app.GitTag, app.BuildTime, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
	versionCmd.Flags().BoolVarP(&short, "short", "s", false, "print the version number only")
	rootCmd.AddCommand(versionCmd)
}
