// Command vc is the thin CLI dispatcher for the core in pkg/repo,
// pkg/index, and pkg/objectdb (§6: "treated as a thin dispatcher that
// invokes core operations and renders their results").
//
// Grounded in the teacher's examples/demo/main.go for the ANSI-styled
// terminal output convention, generalized to github.com/spf13/cobra for
// command dispatch and github.com/fatih/color for rendering — both seen
// across the example pack's git-like CLIs (other_examples' NahomAnteneh-vec
// and KDT2006-mygit).
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"vc/pkg/objectdb"
	"vc/pkg/repo"
	"vc/pkg/vcerrors"
)

// firstLine returns the first non-blank trimmed line of message, or a
// placeholder if message has none.
func firstLine(message string) string {
	for _, line := range strings.Split(message, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return "(no commit message)"
}

// cmdError wraps an error produced by a command handler, distinguishing it
// from cobra's own "unknown command" errors so main can tell exit code 1
// (user-visible error) from exit code -1 (unknown command) apart, per §6.
type cmdError struct{ err error }

func (c cmdError) Error() string { return c.err.Error() }
func (c cmdError) Unwrap() error { return c.err }

func fail(err error) error { return cmdError{err} }

func main() {
	root := newRootCmd()
	root.SilenceUsage = true
	root.SilenceErrors = true
	if err := root.Execute(); err != nil {
		var ce cmdError
		if errors.As(err, &ce) {
			fmt.Fprintln(os.Stderr, renderError(ce.err))
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(-1)
	}
}

func renderError(err error) string {
	red := color.New(color.FgRed).SprintFunc()
	return red("error: ") + err.Error()
}

func openRepo() (*repo.Repo, error) {
	r, err := repo.Open(".")
	if err != nil {
		return nil, err
	}
	return r, nil
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "vc",
		Short: "a small, git-like version control system",
	}
	root.AddCommand(
		newInitCmd(),
		newHashObjectCmd(),
		newCatFileCmd(),
		newAddCmd(),
		newCommitCmd(),
		newStatusCmd(),
		newLogCmd(),
		newCheckoutCmd(),
		newBranchCmd(),
		newDiffCmd(),
	)
	return root
}

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "create an empty repository",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := repo.InitRepo(".", ""); err != nil {
				return fail(err)
			}
			fmt.Println("Initialized empty vc repository")
			return nil
		},
	}
}

func newHashObjectCmd() *cobra.Command {
	var write bool
	var stdin bool
	cmd := &cobra.Command{
		Use:   "hash-object [file]",
		Short: "compute an object key, optionally storing the object",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return fail(err)
			}

			var content []byte
			if stdin {
				content, err = readAll(os.Stdin)
			} else {
				if len(args) != 1 {
					return fail(errors.New("hash-object requires exactly one file argument, or --stdin"))
				}
				content, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fail(vcerrors.NotFound("could not read input", err))
			}

			var key string
			if write {
				key, err = r.Store().Put(content, objectdb.Blob)
			} else {
				key, err = r.Store().CalculateKey(content, objectdb.Blob)
			}
			if err != nil {
				return fail(err)
			}
			fmt.Println(key)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&write, "write", "w", false, "write the object to the store")
	cmd.Flags().BoolVar(&stdin, "stdin", false, "read content from standard input")
	return cmd
}

func newCatFileCmd() *cobra.Command {
	var checkExists, showSize, showPretty, showType bool
	cmd := &cobra.Command{
		Use:   "cat-file <hash>",
		Short: "inspect an object: existence, size, contents, or type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return fail(err)
			}
			obj, err := r.Store().Get(args[0])
			if checkExists {
				if err != nil {
					os.Exit(1)
				}
				return nil
			}
			if err != nil {
				return fail(err)
			}
			switch {
			case showSize:
				fmt.Println(obj.Size)
			case showType:
				fmt.Println(obj.Type)
			case showPretty:
				fmt.Print(obj.Text())
			default:
				return fail(errors.New("cat-file requires one of -e, -s, -p, -t"))
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&checkExists, "exists", "e", false, "check that the object exists")
	cmd.Flags().BoolVarP(&showSize, "size", "s", false, "print the object's size")
	cmd.Flags().BoolVarP(&showPretty, "print", "p", false, "pretty-print the object's contents")
	cmd.Flags().BoolVarP(&showType, "type", "t", false, "print the object's type")
	return cmd
}

func newAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <paths...>",
		Short: "stage file contents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return fail(err)
			}
			for _, path := range args {
				if err := r.Index.StageFile(path); err != nil {
					return fail(err)
				}
			}
			return nil
		},
	}
}

func newCommitCmd() *cobra.Command {
	var message string
	cmd := &cobra.Command{
		Use:   "commit",
		Short: "record staged changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return fail(err)
			}
			key, err := r.Index.Commit(r, message)
			if err != nil {
				return fail(err)
			}
			branch, _, err := r.BranchCurrent()
			if err != nil {
				return fail(err)
			}
			green := color.New(color.FgGreen).SprintFunc()
			label := branch
			if label == "" {
				label = "detached HEAD"
			}
			fmt.Printf("[%s %s] %s\n", green(label), key[:7], firstLine(message))
			return nil
		},
	}
	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message")
	return cmd
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "show the working tree status",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return fail(err)
			}
			st, err := r.Status()
			if err != nil {
				return fail(err)
			}
			printStatus(st)
			return nil
		},
	}
}

func printStatus(st repo.Status) {
	if st.Branch != "" {
		fmt.Printf("On branch %s\n", st.Branch)
	} else {
		fmt.Printf("HEAD detached at %s\n", st.DetachedShortTip)
	}

	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	if len(st.Staged) > 0 {
		fmt.Println("Changes to be committed:")
		for _, f := range st.Staged {
			fmt.Printf("\t%s: %s\n", green(string(f.Status)), green(f.Path))
		}
	}
	if len(st.NotStaged) > 0 {
		fmt.Println("Changes not staged for commit:")
		for _, f := range st.NotStaged {
			fmt.Printf("\t%s: %s\n", red(string(f.Status)), red(f.Path))
		}
	}
	if len(st.NotTracked) > 0 {
		fmt.Println("Untracked files:")
		for _, f := range st.NotTracked {
			fmt.Printf("\t%s\n", cyan(f))
		}
	}
}

func newLogCmd() *cobra.Command {
	var oneline bool
	cmd := &cobra.Command{
		Use:   "log",
		Short: "walk first-parent history",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return fail(err)
			}
			entries, err := r.Log()
			if err != nil {
				return fail(err)
			}
			yellow := color.New(color.FgYellow).SprintFunc()
			for _, e := range entries {
				if oneline {
					fmt.Printf("%s %s\n", yellow(e.Key[:7]), e.Comment)
				} else {
					fmt.Printf("commit %s\n\n    %s\n\n", yellow(e.Key), e.Comment)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&oneline, "oneline", false, "one line per commit")
	return cmd
}

func newCheckoutCmd() *cobra.Command {
	var createBranch bool
	cmd := &cobra.Command{
		Use:   "checkout <ref>",
		Short: "switch the workdir, index, and HEAD to a commit or branch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return fail(err)
			}
			result, err := r.Checkout(args[0], createBranch)
			if err != nil {
				return fail(err)
			}
			if result.Detached {
				fmt.Printf("Note: switching to '%s'.\nHEAD is now at %s %s\n", args[0], args[0], result.ShortMessage)
			} else {
				fmt.Printf("Switched to branch '%s'\n", args[0])
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&createBranch, "branch", "b", false, "create the branch if it does not exist")
	return cmd
}

func newBranchCmd() *cobra.Command {
	var del bool
	var move bool
	cmd := &cobra.Command{
		Use:   "branch [names...]",
		Short: "create, list, delete, or rename branches",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return fail(err)
			}
			switch {
			case del:
				if len(args) != 1 {
					return fail(errors.New("branch -d requires exactly one branch name"))
				}
				short, err := r.BranchDelete(args[0])
				if err != nil {
					return fail(err)
				}
				fmt.Printf("Deleted branch %s (was %s)\n", args[0], short)
			case move:
				if len(args) != 2 {
					return fail(errors.New("branch -m requires <old> <new>"))
				}
				if err := r.BranchRename(args[0], args[1]); err != nil {
					return fail(err)
				}
			case len(args) == 1:
				if err := r.BranchCreate(args[0]); err != nil {
					return fail(err)
				}
			default:
				names, current, err := r.ListBranches()
				if err != nil {
					return fail(err)
				}
				green := color.New(color.FgGreen).SprintFunc()
				for _, name := range names {
					if name == current {
						fmt.Printf("* %s\n", green(name))
					} else {
						fmt.Printf("  %s\n", name)
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&del, "delete", "d", false, "delete the named branch")
	cmd.Flags().BoolVarP(&move, "move", "m", false, "rename a branch")
	return cmd
}

func newDiffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diff [files...]",
		Short: "context diff the index against the working tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return fail(err)
			}
			diffs, err := r.Diff(args)
			if err != nil {
				return fail(err)
			}
			for _, d := range diffs {
				fmt.Print(d)
			}
			return nil
		},
	}
}

func readAll(f *os.File) ([]byte, error) {
	buf, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return buf, nil
}
