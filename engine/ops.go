package engine

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	multierror "github.com/hashicorp/go-multierror"
	"github.com/onefatfs/onefat"
	"github.com/onefatfs/onefat/dirent"
	"github.com/onefatfs/onefat/errors"
	"github.com/onefatfs/onefat/pathresolve"
)

// Kind identifies which of the 15 commands a Command carries (spec.md §9
// DESIGN NOTES: tagged variant in place of the teacher's command class
// hierarchy).
type Kind int

const (
	Mkdir Kind = iota
	Rmdir
	Ls
	Cd
	Pwd
	Cat
	Info
	Incp
	Outcp
	Cp
	Mv
	Rm
	Load
	Format
	Defrag
)

// Command is one parsed, arity-checked invocation, ready for Dispatch.
type Command struct {
	Kind Kind
	Args []string
}

var arities = map[Kind]int{
	Mkdir: 1, Rmdir: 1, Ls: -1, Cd: -1, Pwd: 0, Cat: 1, Info: 1,
	Incp: 2, Outcp: 2, Cp: 2, Mv: 2, Rm: 1, Load: 1, Format: 1, Defrag: 1,
}

var names = map[string]Kind{
	"mkdir": Mkdir, "rmdir": Rmdir, "ls": Ls, "cd": Cd, "pwd": Pwd,
	"cat": Cat, "info": Info, "incp": Incp, "outcp": Outcp, "cp": Cp,
	"mv": Mv, "rm": Rm, "load": Load, "format": Format, "defrag": Defrag,
}

// Parse builds a Command from a tokenized command line: tokens[0] is the
// command name, the rest are its options. `ls` and `cd` accept either 0 or
// 1 argument; every other command has a fixed arity.
func Parse(tokens []string) (Command, error) {
	if len(tokens) == 0 {
		return Command{}, errors.ErrInvalidOption.WithMessage("empty command line")
	}

	kind, ok := names[tokens[0]]
	if !ok {
		return Command{}, errors.ErrInvalidOption.WithMessage(fmt.Sprintf("Unknown command: %s", tokens[0]))
	}

	args := tokens[1:]
	want := arities[kind]
	if want >= 0 && len(args) != want {
		return Command{}, errors.ErrInvalidOption.WithMessage("wrong number of arguments")
	}
	if want < 0 && len(args) > 1 {
		return Command{}, errors.ErrInvalidOption.WithMessage("wrong number of arguments")
	}

	// Path shape is validated per-argument inside each operation (via
	// pathresolve.ValidateShape), since which arguments are FS paths versus
	// host paths or raw sizes varies by command.
	return Command{Kind: kind, Args: args}, nil
}

// Dispatch executes cmd against e and returns the text the caller should
// print. Every command prints "OK" on success unless the table in spec.md
// §4.9 says otherwise.
func Dispatch(e *Engine, cmd Command) (string, error) {
	switch cmd.Kind {
	case Mkdir:
		return "OK", e.mkdir(cmd.Args[0])
	case Rmdir:
		return "OK", e.rmdir(cmd.Args[0])
	case Ls:
		path := ""
		if len(cmd.Args) == 1 {
			path = cmd.Args[0]
		}
		return e.ls(path)
	case Cd:
		path := ""
		if len(cmd.Args) == 1 {
			path = cmd.Args[0]
		}
		return "OK", e.cd(path)
	case Pwd:
		return e.WorkingDirectoryPath(), nil
	case Cat:
		return e.cat(cmd.Args[0])
	case Info:
		return e.info(cmd.Args[0])
	case Incp:
		return "OK", e.incp(cmd.Args[0], cmd.Args[1])
	case Outcp:
		return "OK", e.outcp(cmd.Args[0], cmd.Args[1])
	case Cp:
		return "OK", e.cp(cmd.Args[0], cmd.Args[1])
	case Mv:
		return "OK", e.mv(cmd.Args[0], cmd.Args[1])
	case Rm:
		return "OK", e.rm(cmd.Args[0])
	case Load:
		return e.load(cmd.Args[0])
	case Format:
		diskSize, err := ParseFormatSize(cmd.Args[0])
		if err != nil {
			return "", err
		}
		if err := e.Format(diskSize); err != nil {
			return "", err
		}
		return "OK", nil
	case Defrag:
		return "OK", e.defrag(cmd.Args[0])
	default:
		return "", errors.ErrInvalidOption.WithMessage("unknown command kind")
	}
}

// resolveFile resolves path relative to the working directory, requiring a
// file at the last component.
func (e *Engine) resolveFile(path string) (dirent.Entry, error) {
	return e.resolver.Resolve(e.wd, pathresolve.Split(path), dirent.KindFile, false)
}

// resolveDir resolves path relative to the working directory, requiring a
// directory at the last component. An empty path resolves to the working
// directory itself.
func (e *Engine) resolveDir(path string) (dirent.Entry, error) {
	return e.resolver.Resolve(e.wd, pathresolve.Split(path), dirent.KindDirectory, true)
}

func (e *Engine) mkdir(path string) error {
	if err := pathresolve.ValidateShape(path); err != nil {
		return err
	}
	parent, name, err := e.resolver.ParentCluster(e.wd, pathresolve.Split(path))
	if err != nil {
		return err
	}
	if len(name) > onefat.MaxNameLength {
		return errors.ErrBadPath.WithMessage("FILE NAME TOO LONG")
	}

	if _, found, err := e.dirs.FindByName(parent, name, dirent.KindAny); err != nil {
		return err
	} else if found {
		return errors.ErrExists
	}

	clusters, err := e.alloc.FreeClusters(1, false)
	if err != nil {
		return err
	}
	k := clusters[0]

	if err := e.dirs.Insert(parent, dirent.Entry{Name: name, IsFile: false, Size: 0, StartCluster: k}); err != nil {
		return err
	}
	if err := e.dirs.Init(k, parent); err != nil {
		return err
	}
	return e.alloc.MakeChain([]uint32{k})
}

func (e *Engine) rmdir(path string) error {
	if err := pathresolve.ValidateShape(path); err != nil {
		return err
	}
	target, err := e.resolveDir(path)
	if err != nil {
		return err
	}

	count, err := e.dirs.Count(target.StartCluster)
	if err != nil {
		return err
	}
	if count > 2 {
		return errors.ErrNotEmpty
	}

	parent, name, err := e.resolver.ParentCluster(e.wd, pathresolve.Split(path))
	if err != nil {
		return err
	}
	if _, err := e.dirs.Remove(parent, name, dirent.KindDirectory); err != nil {
		return err
	}
	return e.alloc.LabelChain([]uint32{target.StartCluster}, onefat.FATUnused)
}

func (e *Engine) ls(path string) (string, error) {
	if err := pathresolve.ValidateShape(path); err != nil {
		return "", err
	}
	dir, err := e.resolveDir(path)
	if err != nil {
		return "", err
	}
	entries, err := e.dirs.Enumerate(dir.StartCluster)
	if err != nil {
		return "", err
	}

	entryNames := make([]string, len(entries))
	for i, entry := range entries {
		entryNames[i] = entry.Name
	}
	return strings.Join(entryNames, " "), nil
}

func (e *Engine) cd(path string) error {
	if err := pathresolve.ValidateShape(path); err != nil {
		return err
	}
	entry, err := e.resolver.Resolve(e.wd, pathresolve.Split(path), dirent.KindAny, true)
	if err != nil {
		return err
	}
	if entry.IsFile {
		return errors.ErrNotADirectory.WithMessage("NOT A DIRECTORY")
	}
	e.wd = entry.StartCluster
	return e.refreshPath()
}

func (e *Engine) cat(path string) (string, error) {
	if err := pathresolve.ValidateShape(path); err != nil {
		return "", err
	}
	entry, err := e.resolveFile(path)
	if err != nil {
		return "", err
	}
	chain, err := e.alloc.ChainFrom(entry.StartCluster, int64(entry.Size))
	if err != nil {
		return "", err
	}
	data, err := e.files.ReadFile(chain, int64(entry.Size))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (e *Engine) info(path string) (string, error) {
	if err := pathresolve.ValidateShape(path); err != nil {
		return "", err
	}
	entry, err := e.resolver.Resolve(e.wd, pathresolve.Split(path), dirent.KindAny, true)
	if err != nil {
		return "", err
	}

	if !entry.IsFile {
		count, err := e.dirs.Count(entry.StartCluster)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("DIRECTORY %s entries=%d", entry.Name, count), nil
	}

	chain, err := e.alloc.ChainFrom(entry.StartCluster, int64(entry.Size))
	if err != nil {
		return "", err
	}
	indices := make([]string, len(chain))
	for i, c := range chain {
		indices[i] = strconv.FormatUint(uint64(c), 10)
	}
	return strings.Join(indices, " "), nil
}

func (e *Engine) incp(hostPath, fsPath string) error {
	if err := pathresolve.ValidateShape(fsPath); err != nil {
		return err
	}
	data, err := os.ReadFile(hostPath)
	if err != nil {
		return errors.ErrFileNotFound.Wrap(err)
	}

	parent, name, err := e.resolver.ParentCluster(e.wd, pathresolve.Split(fsPath))
	if err != nil {
		return err
	}
	if len(name) > onefat.MaxNameLength {
		return errors.ErrBadPath.WithMessage("FILE NAME TOO LONG")
	}
	if _, found, err := e.dirs.FindByName(parent, name, dirent.KindAny); err != nil {
		return err
	} else if found {
		return errors.ErrExists
	}

	n := uint32(len(data)) / onefat.ClusterSize
	if uint32(len(data))%onefat.ClusterSize != 0 || len(data) == 0 {
		n++
	}
	clusters, err := e.alloc.FreeClusters(n, false)
	if err != nil {
		return err
	}
	if err := e.alloc.MakeChain(clusters); err != nil {
		return err
	}
	if err := e.files.WriteFile(clusters, data); err != nil {
		return err
	}
	return e.dirs.Insert(parent, dirent.Entry{Name: name, IsFile: true, Size: uint32(len(data)), StartCluster: clusters[0]})
}

func (e *Engine) outcp(fsPath, hostPath string) error {
	if err := pathresolve.ValidateShape(fsPath); err != nil {
		return err
	}
	entry, err := e.resolveFile(fsPath)
	if err != nil {
		return err
	}
	chain, err := e.alloc.ChainFrom(entry.StartCluster, int64(entry.Size))
	if err != nil {
		return err
	}
	data, err := e.files.ReadFile(chain, int64(entry.Size))
	if err != nil {
		return err
	}
	if err := os.WriteFile(hostPath, data, 0o644); err != nil {
		return errors.ErrImageIO.Wrap(err)
	}
	return nil
}

func (e *Engine) cp(srcPath, dstPath string) error {
	if err := pathresolve.ValidateShape(srcPath); err != nil {
		return err
	}
	if err := pathresolve.ValidateShape(dstPath); err != nil {
		return err
	}

	src, err := e.resolveFile(srcPath)
	if err != nil {
		return err
	}

	dstParent, dstName, err := e.resolver.ParentCluster(e.wd, pathresolve.Split(dstPath))
	if err != nil {
		return err
	}
	if len(dstName) > onefat.MaxNameLength {
		return errors.ErrBadPath.WithMessage("FILE NAME TOO LONG")
	}
	if _, found, err := e.dirs.FindByName(dstParent, dstName, dirent.KindAny); err != nil {
		return err
	} else if found {
		return errors.ErrExists
	}

	srcChain, err := e.alloc.ChainFrom(src.StartCluster, int64(src.Size))
	if err != nil {
		return err
	}
	data, err := e.files.ReadFile(srcChain, int64(src.Size))
	if err != nil {
		return err
	}

	dstChain, err := e.alloc.FreeClusters(uint32(len(srcChain)), false)
	if err != nil {
		return err
	}
	if err := e.alloc.MakeChain(dstChain); err != nil {
		return err
	}
	if err := e.files.WriteFile(dstChain, data); err != nil {
		return err
	}
	return e.dirs.Insert(dstParent, dirent.Entry{Name: dstName, IsFile: true, Size: src.Size, StartCluster: dstChain[0]})
}

func (e *Engine) mv(srcPath, dstPath string) error {
	if err := pathresolve.ValidateShape(srcPath); err != nil {
		return err
	}
	if err := pathresolve.ValidateShape(dstPath); err != nil {
		return err
	}

	src, err := e.resolveFile(srcPath)
	if err != nil {
		return err
	}
	srcParent, srcName, err := e.resolver.ParentCluster(e.wd, pathresolve.Split(srcPath))
	if err != nil {
		return err
	}

	dstParent, dstName, err := e.resolver.ParentCluster(e.wd, pathresolve.Split(dstPath))
	if err != nil {
		return err
	}
	if len(dstName) > onefat.MaxNameLength {
		return errors.ErrBadPath.WithMessage("FILE NAME TOO LONG")
	}
	if _, found, err := e.dirs.FindByName(dstParent, dstName, dirent.KindAny); err != nil {
		return err
	} else if found {
		return errors.ErrExists
	}

	if _, err := e.dirs.Remove(srcParent, srcName, dirent.KindFile); err != nil {
		return err
	}
	return e.dirs.Insert(dstParent, dirent.Entry{Name: dstName, IsFile: true, Size: src.Size, StartCluster: src.StartCluster})
}

func (e *Engine) rm(path string) error {
	if err := pathresolve.ValidateShape(path); err != nil {
		return err
	}
	entry, err := e.resolveFile(path)
	if err != nil {
		return err
	}
	parent, name, err := e.resolver.ParentCluster(e.wd, pathresolve.Split(path))
	if err != nil {
		return err
	}

	chain, err := e.alloc.ChainFrom(entry.StartCluster, int64(entry.Size))
	if err != nil {
		return err
	}
	if err := e.alloc.LabelChain(chain, onefat.FATUnused); err != nil {
		return err
	}
	_, err = e.dirs.Remove(parent, name, dirent.KindFile)
	return err
}

// load reads hostPath line by line, tokenizing each on spaces and
// dispatching as though typed at the prompt. Recoverable per-line errors
// are collected and execution continues (spec.md §4.9); a missing host
// file is not recoverable.
func (e *Engine) load(hostPath string) (string, error) {
	data, err := os.ReadFile(hostPath)
	if err != nil {
		return "", errors.ErrFileNotFound.Wrap(err)
	}

	var result *multierror.Error
	var output []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		cmd, err := Parse(strings.Fields(line))
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		out, err := Dispatch(e, cmd)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		output = append(output, out)
	}

	var reported error
	if result != nil {
		reported = result.ErrorOrNil()
	}
	return strings.Join(output, "\n"), reported
}

func (e *Engine) defrag(path string) error {
	if err := pathresolve.ValidateShape(path); err != nil {
		return err
	}
	entry, err := e.resolveFile(path)
	if err != nil {
		return err
	}

	chain, err := e.alloc.ChainFrom(entry.StartCluster, int64(entry.Size))
	if err != nil {
		return err
	}
	if isConsecutive(chain) {
		return nil
	}

	data, err := e.files.ReadFile(chain, int64(entry.Size))
	if err != nil {
		return err
	}
	if err := e.alloc.LabelChain(chain, onefat.FATUnused); err != nil {
		return err
	}

	fresh, err := e.alloc.FreeClusters(uint32(len(chain)), true)
	if err != nil {
		return err
	}
	if err := e.alloc.MakeChain(fresh); err != nil {
		return err
	}
	if err := e.files.WriteFile(fresh, data); err != nil {
		return err
	}

	parent, name, err := e.resolver.ParentCluster(e.wd, pathresolve.Split(path))
	if err != nil {
		return err
	}
	return e.dirs.Edit(parent, entry.StartCluster, dirent.Entry{
		Name: name, IsFile: true, Size: entry.Size, StartCluster: fresh[0],
	})
}

func isConsecutive(chain []uint32) bool {
	if len(chain) <= 1 {
		return true
	}
	for i := 1; i < len(chain); i++ {
		if chain[i] != chain[i-1]+1 {
			return false
		}
	}
	return true
}

var unitRegexp = regexp.MustCompile(`^([0-9]+)([A-Za-z]+)$`)

var disallowedUnits = map[string]bool{
	"KB": true, "GB": true, "TB": true, "B": true, "KIB": true, "MIB": true, "GIB": true, "TIB": true,
}

// ParseFormatSize parses a `format` size argument per spec.md §9's Open
// Question resolution: internal whitespace is always rejected; only an
// "MB" suffix (in any letter case) is accepted; any other recognized unit is a valid
// shape but an unsupported unit, reported as OutOfSpace rather than
// InvalidOption (spec.md §8 scenario S6).
func ParseFormatSize(arg string) (uint32, error) {
	if strings.ContainsAny(arg, " \t") {
		return 0, errors.ErrInvalidOption.WithMessage("invalid option(s)")
	}

	m := unitRegexp.FindStringSubmatch(arg)
	if m == nil {
		return 0, errors.ErrInvalidOption.WithMessage("invalid option(s)")
	}
	unit := strings.ToUpper(m[2])

	if unit != "MB" {
		if disallowedUnits[unit] {
			return 0, errors.ErrOutOfSpace.WithMessage("CANNOT CREATE FILE (wrong unit)")
		}
		return 0, errors.ErrInvalidOption.WithMessage("invalid option(s)")
	}

	bytes, err := humanize.ParseBytes(m[1] + " MB")
	if err != nil {
		return 0, errors.ErrInvalidOption.Wrap(err)
	}
	return uint32(bytes), nil
}
