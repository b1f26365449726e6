package git

import (
	"errors"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/masmgr/vcsview-go/internal/invoke"
	"github.com/masmgr/vcsview-go/internal/vcs"
)

// blameHeaderPattern matches "<rev> <origLine> <finalLine> [<groupSize>]".
var blameHeaderPattern = regexp.MustCompile(`^([0-9a-f]{4,64}) ([0-9]+) ([0-9]+)(?: ([0-9]+))?$`)

type blameMeta struct {
	author   string
	mail     string
	time     time.Time
	boundary bool
}

type blameParser struct {
	meta    map[string]*blameMeta
	rev     string
	final   int
	pending int
	lineNo  int
	emit    func(vcs.BlameLine) error
}

// ParseBlame reads porcelain blame output from lr and calls fn once per
// content line, in order. An error from fn stops parsing and is returned.
func ParseBlame(lr invoke.LineReader, fn func(vcs.BlameLine) error) error {
	p := &blameParser{meta: make(map[string]*blameMeta), emit: fn}
	for {
		line, err := lr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		p.lineNo++
		if err := p.feed(line); err != nil {
			return err
		}
	}
	if p.pending > 0 {
		return &vcs.ParseError{LineNo: p.lineNo, Reason: "blame output ended inside a line group"}
	}
	return nil
}

func (p *blameParser) fail(line, reason string) error {
	return &vcs.ParseError{Line: line, LineNo: p.lineNo, Reason: reason}
}

func (p *blameParser) feed(line string) error {
	if line == "" {
		return nil
	}
	if text, ok := strings.CutPrefix(line, "\t"); ok {
		return p.content(line, text)
	}
	if m := blameHeaderPattern.FindStringSubmatch(line); m != nil {
		return p.header(line, m)
	}
	if p.rev == "" {
		return p.fail(line, "metadata before commit header")
	}

	key, value, _ := strings.Cut(line, " ")
	md := p.meta[p.rev]
	switch key {
	case "author":
		md.author = value
	case "author-mail":
		md.mail = strings.TrimSuffix(strings.TrimPrefix(value, "<"), ">")
	case "author-time":
		sec, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return p.fail(line, "invalid author-time")
		}
		md.time = time.Unix(sec, 0).UTC()
	case "boundary":
		md.boundary = true
	}
	return nil
}

func (p *blameParser) header(line string, m []string) error {
	final, err := strconv.Atoi(m[3])
	if err != nil {
		return p.fail(line, "invalid line number")
	}
	switch {
	case m[4] != "":
		if p.pending > 0 {
			return p.fail(line, "new line group before previous group completed")
		}
		size, err := strconv.Atoi(m[4])
		if err != nil || size < 1 {
			return p.fail(line, "invalid group size")
		}
		p.pending = size
	case p.pending == 0:
		p.pending = 1
	case m[1] != p.rev:
		return p.fail(line, "revision changed inside line group")
	}
	p.rev = m[1]
	p.final = final
	if p.meta[p.rev] == nil {
		p.meta[p.rev] = &blameMeta{}
	}
	return nil
}

func (p *blameParser) content(line, text string) error {
	if p.pending == 0 {
		return p.fail(line, "content line without commit header")
	}
	md := p.meta[p.rev]
	bl := vcs.BlameLine{
		LineNo:     p.final,
		Text:       text,
		Revision:   p.rev,
		Author:     md.author,
		AuthorMail: md.mail,
		Time:       md.time,
		Boundary:   md.boundary,
	}
	p.final++
	p.pending--
	return p.emit(bl)
}
