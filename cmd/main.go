package main

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ha1tch/ghonsla/cmd/add"
	"github.com/ha1tch/ghonsla/cmd/archive"
	"github.com/ha1tch/ghonsla/cmd/blockmap"
	"github.com/ha1tch/ghonsla/cmd/create"
	"github.com/ha1tch/ghonsla/cmd/delete"
	"github.com/ha1tch/ghonsla/cmd/extract"
	"github.com/ha1tch/ghonsla/cmd/format"
	"github.com/ha1tch/ghonsla/cmd/info"
	"github.com/ha1tch/ghonsla/cmd/list"
	"github.com/ha1tch/ghonsla/cmd/mkdir"
	"github.com/ha1tch/ghonsla/cmd/rename"
	"github.com/ha1tch/ghonsla/cmd/touch"
	"github.com/ha1tch/ghonsla/cmd/write"
	"github.com/ha1tch/ghonsla/internal"
	"github.com/ha1tch/ghonsla/pkg/fatfs"
)

// app holds the flags shared by all commands.
type app struct {
	diskPath string
	verbose  bool
	geometry internal.Geometry
}

func newApp() *app {
	def := fatfs.DefaultConfig()
	return &app{
		diskPath: fatfs.DefaultImageName,
		geometry: internal.Geometry{
			SizeMiB:    def.Size >> 20,
			Entries:    def.EntryCount,
			BlockSize:  def.BlockSize,
			FileBlocks: def.FileMaxBlocks,
		},
	}
}

func (a *app) config() (fatfs.Config, error) {
	size, err := a.geometry.SizeBytes()
	if err != nil {
		return fatfs.Config{}, err
	}
	return fatfs.Config{
		Size:          size,
		EntryCount:    a.geometry.Entries,
		BlockSize:     a.geometry.BlockSize,
		FileMaxBlocks: a.geometry.FileBlocks,
	}, nil
}

// warnIgnoredGeometry tells the user that geometry flags do not apply to an
// image that already exists.
func (a *app) warnIgnoredGeometry(cmd *cobra.Command) {
	if !a.geometry.Changed(cmd.Flags()) {
		return
	}
	if _, err := os.Stat(a.diskPath); err == nil {
		logrus.WithField("disk", a.diskPath).Warn("existing image found, ignoring geometry flags")
	}
}

func newRootCmd() *cobra.Command {
	a := newApp()

	root := &cobra.Command{
		Use:           "ghonsla",
		Short:         "Manage FAT-style filesystems stored in a single image file",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logrus.SetOutput(cmd.ErrOrStderr())
			logrus.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
			if a.verbose {
				logrus.SetLevel(logrus.DebugLevel)
			} else {
				logrus.SetLevel(logrus.InfoLevel)
			}
		},
	}
	root.PersistentFlags().StringVarP(&a.diskPath, "disk", "d", a.diskPath, "path of the filesystem image")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log every filesystem operation")

	root.AddCommand(
		a.createCmd(),
		a.infoCmd(),
		a.listCmd(),
		a.mkdirCmd(),
		a.touchCmd(),
		a.addCmd(),
		a.writeCmd(),
		a.extractCmd(),
		a.renameCmd(),
		a.deleteCmd(),
		a.formatCmd(),
		a.blockmapCmd(),
		a.exportCmd(),
		a.importCmd(),
	)
	return root
}

func (a *app) createCmd() *cobra.Command {
	opts := create.DefaultCreateOptions()
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create and format a new image",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			opts.Config = cfg
			opts.Out = cmd.OutOrStdout()
			return create.Create(a.diskPath, opts)
		},
	}
	a.geometry.Bind(cmd.Flags())
	cmd.Flags().BoolVarP(&opts.Force, "force", "f", false, "overwrite an existing image")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "suppress output")
	return cmd
}

func (a *app) infoCmd() *cobra.Command {
	opts := info.DefaultInfoOptions()
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show image geometry and usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Out = cmd.OutOrStdout()
			return info.Info(a.diskPath, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "output JSON")
	cmd.Flags().BoolVarP(&opts.Verbose, "long", "l", false, "show block-level details")
	cmd.Flags().BoolVar(&opts.Check, "check", true, "run the consistency check")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "only report problems")
	return cmd
}

func (a *app) listCmd() *cobra.Command {
	opts := list.DefaultListOptions()
	cmd := &cobra.Command{
		Use:     "list [PATH]",
		Aliases: []string{"ls"},
		Short:   "List a directory of the image",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Out = cmd.OutOrStdout()
			path := fatfs.RootName
			if len(args) == 1 {
				path = args[0]
			}
			return list.List(a.diskPath, path, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "output JSON")
	cmd.Flags().BoolVarP(&opts.Recursive, "recursive", "R", false, "list subdirectories as a tree")
	cmd.Flags().StringVar(&opts.Sort, "sort", opts.Sort, "sort order: slot, name, size")
	cmd.Flags().BoolVarP(&opts.Reverse, "reverse", "r", false, "reverse sort order")
	cmd.Flags().StringVar(&opts.Pattern, "pattern", opts.Pattern, "only list names matching a glob")
	cmd.Flags().BoolVarP(&opts.Human, "human", "H", false, "human-readable sizes")
	return cmd
}

func (a *app) mkdirCmd() *cobra.Command {
	opts := mkdir.DefaultMkdirOptions()
	cmd := &cobra.Command{
		Use:   "mkdir PATH",
		Short: "Create a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.warnIgnoredGeometry(cmd)
			cfg, err := a.config()
			if err != nil {
				return err
			}
			opts.Config = cfg
			opts.Out = cmd.OutOrStdout()
			return mkdir.Mkdir(a.diskPath, args[0], opts)
		},
	}
	a.geometry.Bind(cmd.Flags())
	cmd.Flags().BoolVarP(&opts.Parents, "parents", "p", false, "create missing parent directories")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "suppress output")
	return cmd
}

func (a *app) touchCmd() *cobra.Command {
	opts := touch.DefaultTouchOptions()
	cmd := &cobra.Command{
		Use:   "touch PATH",
		Short: "Create an empty file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.warnIgnoredGeometry(cmd)
			cfg, err := a.config()
			if err != nil {
				return err
			}
			opts.Config = cfg
			opts.Out = cmd.OutOrStdout()
			return touch.Touch(a.diskPath, args[0], opts)
		},
	}
	a.geometry.Bind(cmd.Flags())
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "suppress output")
	return cmd
}

func (a *app) addCmd() *cobra.Command {
	opts := add.DefaultAddOptions()
	cmd := &cobra.Command{
		Use:   "add HOSTFILE [PATH]",
		Short: "Copy a host file into the image",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.warnIgnoredGeometry(cmd)
			cfg, err := a.config()
			if err != nil {
				return err
			}
			opts.Config = cfg
			opts.Out = cmd.OutOrStdout()
			dest := ""
			if len(args) == 2 {
				dest = args[1]
			}
			return add.Add(a.diskPath, args[0], dest, opts)
		},
	}
	a.geometry.Bind(cmd.Flags())
	cmd.Flags().BoolVarP(&opts.Force, "force", "f", false, "replace an existing file")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "suppress output")
	return cmd
}

func (a *app) writeCmd() *cobra.Command {
	opts := write.DefaultWriteOptions()
	cmd := &cobra.Command{
		Use:   "write PATH [TEXT]",
		Short: "Write text, or standard input, into a file",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.warnIgnoredGeometry(cmd)
			cfg, err := a.config()
			if err != nil {
				return err
			}
			opts.Config = cfg
			opts.Out = cmd.OutOrStdout()

			var data []byte
			if len(args) == 2 {
				data = []byte(args[1])
			} else if data, err = io.ReadAll(cmd.InOrStdin()); err != nil {
				return err
			}
			return write.Write(a.diskPath, args[0], data, opts)
		},
	}
	a.geometry.Bind(cmd.Flags())
	cmd.Flags().Uint64Var(&opts.Offset, "offset", 0, "byte offset to write at")
	cmd.Flags().BoolVarP(&opts.Append, "append", "a", false, "append to the end of the file")
	cmd.Flags().BoolVarP(&opts.Truncate, "truncate", "t", false, "empty the file first")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "suppress output")
	cmd.MarkFlagsMutuallyExclusive("offset", "append")
	return cmd
}

func (a *app) extractCmd() *cobra.Command {
	opts := extract.DefaultExtractOptions()
	var all bool
	cmd := &cobra.Command{
		Use:   "extract PATH [HOSTFILE|-]",
		Short: "Copy a file out of the image",
		Args: func(cmd *cobra.Command, args []string) error {
			if all {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.RangeArgs(1, 2)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Out = cmd.OutOrStdout()
			if all {
				return extract.ExtractAll(a.diskPath, opts)
			}
			dest := ""
			if len(args) == 2 {
				dest = args[1]
			}
			return extract.Extract(a.diskPath, args[0], dest, opts)
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "extract every file, recreating directories")
	cmd.Flags().StringVarP(&opts.OutputDir, "output-dir", "o", "", "directory to extract into")
	cmd.Flags().BoolVar(&opts.Overwrite, "overwrite", false, "replace existing host files")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "suppress output")
	return cmd
}

func (a *app) renameCmd() *cobra.Command {
	opts := rename.DefaultRenameOptions()
	cmd := &cobra.Command{
		Use:   "rename PATH NEWNAME",
		Short: "Rename a file or directory in place",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Out = cmd.OutOrStdout()
			return rename.Rename(a.diskPath, args[0], args[1], opts)
		},
	}
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "suppress output")
	return cmd
}

func (a *app) deleteCmd() *cobra.Command {
	opts := delete.DefaultDeleteOptions()
	cmd := &cobra.Command{
		Use:     "delete PATH",
		Aliases: []string{"rm"},
		Short:   "Remove a file or a directory tree",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.In = cmd.InOrStdin()
			opts.Out = cmd.OutOrStdout()
			return delete.Delete(a.diskPath, args[0], opts)
		},
	}
	cmd.Flags().BoolVarP(&opts.Force, "force", "f", false, "do not ask for confirmation")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "suppress output")
	return cmd
}

func (a *app) formatCmd() *cobra.Command {
	opts := format.DefaultFormatOptions()
	cmd := &cobra.Command{
		Use:   "format",
		Short: "Erase the image, optionally with a new geometry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			opts.Size, opts.EntryCount, opts.BlockSize, opts.FileMaxBlocks = 0, 0, 0, 0
			if flags.Changed("size") {
				size, err := a.geometry.SizeBytes()
				if err != nil {
					return err
				}
				opts.Size = size
			}
			if flags.Changed("entries") {
				opts.EntryCount = a.geometry.Entries
			}
			if flags.Changed("block-size") {
				opts.BlockSize = a.geometry.BlockSize
			}
			if flags.Changed("file-blocks") {
				opts.FileMaxBlocks = a.geometry.FileBlocks
			}
			opts.Out = cmd.OutOrStdout()
			return format.Format(a.diskPath, opts)
		},
	}
	a.geometry.Bind(cmd.Flags())
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "suppress output")
	return cmd
}

func (a *app) blockmapCmd() *cobra.Command {
	opts := blockmap.DefaultBlockMapOptions()
	cmd := &cobra.Command{
		Use:   "blockmap OUT.png",
		Short: "Render block allocation as a PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Out = cmd.OutOrStdout()
			return blockmap.BlockMap(a.diskPath, args[0], opts)
		},
	}
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "suppress output")
	return cmd
}

func (a *app) exportCmd() *cobra.Command {
	opts := archive.DefaultArchiveOptions()
	cmd := &cobra.Command{
		Use:   "export OUT",
		Short: "Write the whole tree to an archive file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Out = cmd.OutOrStdout()
			return archive.Export(a.diskPath, args[0], opts)
		},
	}
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "suppress output")
	return cmd
}

func (a *app) importCmd() *cobra.Command {
	opts := archive.DefaultArchiveOptions()
	cmd := &cobra.Command{
		Use:   "import IN",
		Short: "Recreate the entries of an archive file in the image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.warnIgnoredGeometry(cmd)
			cfg, err := a.config()
			if err != nil {
				return err
			}
			opts.Config = cfg
			opts.Out = cmd.OutOrStdout()
			return archive.Import(a.diskPath, args[0], opts)
		},
	}
	a.geometry.Bind(cmd.Flags())
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "suppress output")
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
