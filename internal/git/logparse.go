package git

import (
	"errors"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/masmgr/vcsview-go/internal/invoke"
	"github.com/masmgr/vcsview-go/internal/vcs"
)

// logFormat renders one commit as a header block, a blank line, and the
// message indented by four spaces so no message line can start with ':'.
const logFormat = "commit %H%nAuthor:%an <%ae>%nAuthorDate:%at%nRefs:%D%n%n%w(0,4,4)%B"

const messageIndent = "    "

func logArgs(rev string) []string {
	return []string{
		"log", "-n", "1",
		"--no-color", "--decorate=full", "--raw", "--no-abbrev",
		"--root", "-m", "--first-parent", "-M", "-C",
		"--pretty=format:" + logFormat,
		rev, "--",
	}
}

// rawLinePattern is the --raw status line grammar:
// :srcMode dstMode srcHash dstHash status[score] TAB path [TAB path]
var rawLinePattern = regexp.MustCompile(`^:([0-7]{6}) ([0-7]{6}) ([0-9a-f]{4,64}) ([0-9a-f]{4,64}) ([A-Z])([0-9]{0,3})\t([^\t]+)(?:\t([^\t]+))?$`)

type logState int

const (
	stateHeader logState = iota
	stateMessage
	stateFileChanges
)

func (s logState) String() string {
	switch s {
	case stateHeader:
		return "HEADER"
	case stateMessage:
		return "MESSAGE"
	default:
		return "FILE_CHANGES"
	}
}

type logParser struct {
	rev     string
	state   logState
	lineNo  int
	commit  vcs.Commit
	message []string
	seen    map[string]bool
	started bool
}

// ParseLog reads one commit record from lr. rev is the revision that was
// asked for; a record for any other revision is a RevisionMismatchError.
func ParseLog(lr invoke.LineReader, rev string) (*vcs.Commit, error) {
	p := &logParser{rev: rev, seen: make(map[string]bool)}
	for {
		line, err := lr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		p.lineNo++
		if err := p.feed(line); err != nil {
			return nil, err
		}
	}
	return p.finish()
}

func (p *logParser) fail(line, reason string) error {
	return &vcs.ParseError{Line: line, LineNo: p.lineNo, Reason: reason}
}

func (p *logParser) feed(line string) error {
	if !p.started {
		p.started = true
		hash, ok := strings.CutPrefix(line, "commit ")
		if !ok {
			return p.fail(line, "expected commit line")
		}
		hash = strings.TrimSpace(hash)
		if hash != p.rev {
			return &vcs.RevisionMismatchError{Requested: p.rev, Got: hash}
		}
		p.commit.Revision = hash
		return nil
	}

	switch p.state {
	case stateHeader:
		if line == "" {
			p.state = stateMessage
			return nil
		}
		return p.header(line)
	case stateMessage:
		if strings.HasPrefix(line, ":") {
			p.state = stateFileChanges
			return p.fileChange(line)
		}
		if strings.HasPrefix(line, "commit ") {
			return p.fail(line, "unexpected second commit record")
		}
		p.message = append(p.message, strings.TrimPrefix(line, messageIndent))
		return nil
	default:
		if line == "" {
			return nil
		}
		return p.fileChange(line)
	}
}

func (p *logParser) header(line string) error {
	key, value, ok := strings.Cut(line, ":")
	if !ok {
		return p.fail(line, "header line without key")
	}
	value = strings.TrimSpace(value)
	switch strings.TrimSpace(key) {
	case "Author":
		p.commit.Author, p.commit.AuthorEmail = splitIdentity(value)
	case "AuthorDate":
		sec, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return p.fail(line, "invalid author timestamp")
		}
		p.commit.Date = time.Unix(sec, 0).UTC()
	case "Refs":
		p.commit.Tags = tagsFromRefs(value)
	}
	return nil
}

// splitIdentity splits "Name <email>" into its parts.
func splitIdentity(s string) (name, email string) {
	i := strings.LastIndex(s, " <")
	if i < 0 || !strings.HasSuffix(s, ">") {
		return s, ""
	}
	return s[:i], s[i+2 : len(s)-1]
}

// tagsFromRefs extracts sorted tag names from a %D decoration list.
func tagsFromRefs(refs string) []string {
	refs = strings.TrimSpace(refs)
	refs = strings.TrimPrefix(refs, "(")
	refs = strings.TrimSuffix(refs, ")")
	if refs == "" {
		return nil
	}
	var tags []string
	for _, ref := range strings.Split(refs, ",") {
		ref = strings.TrimSpace(ref)
		ref = strings.TrimPrefix(ref, "HEAD -> ")
		ref = strings.TrimPrefix(ref, "tag: ")
		if name, ok := strings.CutPrefix(ref, "refs/tags/"); ok && name != "" {
			tags = append(tags, name)
		}
	}
	sort.Strings(tags)
	return tags
}

func (p *logParser) fileChange(line string) error {
	m := rawLinePattern.FindStringSubmatch(line)
	if m == nil {
		return p.fail(line, "malformed status line")
	}
	srcMode, err := parseMode(m[1])
	if err != nil {
		return p.fail(line, err.Error())
	}
	dstMode, err := parseMode(m[2])
	if err != nil {
		return p.fail(line, err.Error())
	}
	status, err := statusFromCode(m[5])
	if err != nil {
		return p.fail(line, err.Error())
	}

	srcPath, err := unquotePath(m[7])
	if err != nil {
		return p.fail(line, "bad source path quoting")
	}
	dstPath := m[8]
	needsDest := status == vcs.StatusRenamed || status == vcs.StatusCopied
	switch {
	case needsDest && dstPath == "":
		return p.fail(line, "rename or copy without destination path")
	case !needsDest && dstPath != "":
		return p.fail(line, "unexpected destination path")
	}

	fc := vcs.FileChange{
		Path:    srcPath,
		SrcMode: srcMode,
		DstMode: dstMode,
		SrcHash: m[3],
		DstHash: m[4],
		Status:  status,
	}
	if needsDest {
		dst, err := unquotePath(dstPath)
		if err != nil {
			return p.fail(line, "bad destination path quoting")
		}
		fc.PreviousPath = srcPath
		fc.Path = dst
	}
	if p.seen[fc.Path] {
		return p.fail(line, "duplicate path")
	}
	p.seen[fc.Path] = true
	p.commit.Changes = append(p.commit.Changes, fc)
	return nil
}

func statusFromCode(code string) (vcs.ChangeStatus, error) {
	switch code {
	case "A":
		return vcs.StatusAdded, nil
	case "D":
		return vcs.StatusDeleted, nil
	case "M", "T":
		return vcs.StatusModified, nil
	case "R":
		return vcs.StatusRenamed, nil
	case "C":
		return vcs.StatusCopied, nil
	default:
		return 0, errors.New("unknown status " + code)
	}
}

// unquotePath undoes git's C-style quoting of unusual path names.
func unquotePath(p string) (string, error) {
	if len(p) >= 2 && p[0] == '"' && p[len(p)-1] == '"' {
		return strconv.Unquote(p)
	}
	return p, nil
}

func (p *logParser) finish() (*vcs.Commit, error) {
	if !p.started {
		return nil, &vcs.ParseError{Reason: "empty log output"}
	}
	if p.state == stateHeader {
		return nil, &vcs.ParseError{LineNo: p.lineNo, Reason: "log record ended inside header"}
	}
	p.commit.Message = strings.TrimSpace(strings.Join(p.message, "\n"))
	vcs.SortChanges(p.commit.Changes)
	c := p.commit
	return &c, nil
}
