package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/haierkeys/wicky/pkg/difftool"
	"github.com/haierkeys/wicky/pkg/merge"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
)

// engineFlags 离线文本命令共用的参数
type engineFlags struct {
	json    bool
	timeout time.Duration
	tempDir string
}

// engineResult --json 模式下的输出
type engineResult struct {
	Command    string           `json:"command"`
	Text       string           `json:"text"`
	Conflicted bool             `json:"conflicted,omitempty"`
	Stat       *merge.PatchStat `json:"stat,omitempty"`
	Error      string           `json:"error,omitempty"`
}

func (f *engineFlags) bind(c *cobra.Command) {
	fs := c.Flags()
	fs.BoolVar(&f.json, "json", false, "print the result as json")
	fs.DurationVar(&f.timeout, "timeout", 10*time.Second, "tool timeout")
	fs.StringVar(&f.tempDir, "temp-dir", "", "parent directory of the tool workspaces")
}

func (f *engineFlags) engine() *merge.Engine {
	return merge.NewEngine(difftool.New(difftool.Config{TempDir: f.tempDir, Timeout: f.timeout}, bootstrapLogger), bootstrapLogger)
}

func (f *engineFlags) print(c *cobra.Command, res engineResult) error {
	if !f.json {
		_, err := fmt.Fprint(c.OutOrStdout(), res.Text)
		return err
	}
	out, err := sonic.ConfigStd.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.OutOrStdout(), string(out))
	return err
}

func readInputs(paths ...string) ([]string, error) {
	texts := make([]string, 0, len(paths))
	for _, p := range paths {
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		texts = append(texts, string(b))
	}
	return texts, nil
}

func newDiffCommand() *cobra.Command {
	flags := new(engineFlags)
	c := &cobra.Command{
		Use:   "diff <original> <updated>",
		Short: "Print the unified diff between two files // 输出两个文件的统一差异",
		Args:  cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			texts, err := readInputs(args...)
			if err != nil {
				return err
			}
			out, err := flags.engine().Diff(context.Background(), texts[0], texts[1])
			if err != nil {
				return err
			}
			res := engineResult{Command: "diff", Text: out}
			if out != "" {
				if st, err := merge.Stat(out); err == nil {
					res.Stat = &st
				}
			}
			return flags.print(c, res)
		},
	}
	flags.bind(c)
	return c
}

func newPatchCommand() *cobra.Command {
	flags := new(engineFlags)
	var reverse bool
	c := &cobra.Command{
		Use:   "patch <source> <patch>...",
		Short: "Apply patches in order, or undo them with --reverse // 按顺序应用补丁",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			texts, err := readInputs(args...)
			if err != nil {
				return err
			}
			engine := flags.engine()
			var out string
			if reverse {
				out, err = engine.ReversePatch(context.Background(), texts[0], texts[1:]...)
			} else {
				out, err = engine.Patch(context.Background(), texts[0], texts[1:]...)
			}

			var conflicted *merge.ConflictedError
			if errors.As(err, &conflicted) {
				res := engineResult{Command: "patch", Text: conflicted.Rejects, Conflicted: true, Error: err.Error()}
				if perr := flags.print(c, res); perr != nil {
					return perr
				}
				return fmt.Errorf("%s: %w", args[conflicted.Index+1], err)
			}
			if err != nil {
				return err
			}
			return flags.print(c, engineResult{Command: "patch", Text: out})
		},
	}
	flags.bind(c)
	c.Flags().BoolVarP(&reverse, "reverse", "R", false, "undo the patches, newest first")
	return c
}

func newMerge3Command() *cobra.Command {
	flags := new(engineFlags)
	c := &cobra.Command{
		Use:   "merge3 <mine> <original> <theirs>",
		Short: "Three-way merge of two edits of a common original // 三方合并",
		Args:  cobra.ExactArgs(3),
		RunE: func(c *cobra.Command, args []string) error {
			texts, err := readInputs(args...)
			if err != nil {
				return err
			}
			outcome, err := flags.engine().Merge3(context.Background(), texts[0], texts[1], texts[2])
			if err != nil {
				return err
			}
			if err := flags.print(c, engineResult{Command: "merge3", Text: outcome.Text, Conflicted: outcome.Conflicted}); err != nil {
				return err
			}
			if outcome.Conflicted {
				return errors.New("merge conflicts")
			}
			return nil
		},
	}
	flags.bind(c)
	return c
}

func init() {
	rootCmd.AddCommand(newDiffCommand(), newPatchCommand(), newMerge3Command())
}
