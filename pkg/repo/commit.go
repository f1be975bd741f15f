package repo

import (
	"fmt"
	"os"
	"strings"

	"github.com/odvcencio/lut/pkg/object"
	"go.uber.org/zap"
)

// DefaultMessage is used when a commit is created without a message.
const DefaultMessage = "initial"

// CommitSigner signs canonical commit payload bytes and returns an encoded
// signature string to be persisted in CommitObj.Signature.
type CommitSigner func(payload []byte) (string, error)

// CommitOptions describes a commit to create.
type CommitOptions struct {
	Message string
	// Author is "name <email>". Empty falls back to the configured user,
	// then $USER, then "unknown".
	Author string
	Signer CommitSigner
}

// CommitResult describes a created commit.
type CommitResult struct {
	Hash   object.Hash
	Tree   object.Hash
	Parent  object.Hash // empty for the first commit
	Message string      // message as stored, after defaulting
	Staged  int         // number of staged entries in the tree
}

// Empty reports whether the commit was made from an empty staging table.
func (c *CommitResult) Empty() bool {
	return c.Staged == 0
}

// Commit creates a new commit from the current staging table.
//
//  1. Read staging
//  2. BuildTree from staging
//  3. CommitTree: chain to HEAD, write commit, move HEAD
//
// An empty staging table still produces a commit (of the empty tree);
// callers can detect this through CommitResult.Empty.
func (r *Repo) Commit(opts CommitOptions) (*CommitResult, error) {
	// 1. Read staging.
	entries, err := r.Staging.Read()
	if err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	if len(entries) == 0 {
		r.logger.Warn("committing with an empty staging table")
	}

	// 2. Build tree from staging.
	treeHash, err := r.BuildTree(entries)
	if err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	// 3. Chain, write, and move HEAD.
	res, err := r.CommitTree(treeHash, opts)
	if err != nil {
		return nil, err
	}
	res.Staged = len(entries)
	return res, nil
}

// CommitTree wraps an existing tree in a commit whose parent is the current
// head, stores it, and makes it the new head. HEAD is only written after
// the commit object is stored.
func (r *Repo) CommitTree(treeHash object.Hash, opts CommitOptions) (*CommitResult, error) {
	parentHash, err := r.Head.LoadHead()
	if err != nil {
		return nil, fmt.Errorf("commit: read HEAD: %w", err)
	}

	author, err := r.resolveAuthor(opts.Author)
	if err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	message := opts.Message
	if strings.TrimSpace(message) == "" {
		message = DefaultMessage
	}

	now := r.now()
	sig := object.Signature{
		Name:      author,
		Timestamp: now.Unix(),
		Timezone:  now.Format("-0700"),
	}
	commitObj := &object.CommitObj{
		TreeHash:  treeHash,
		Parent:    parentHash,
		Author:    sig,
		Committer: sig,
		Message:   message,
	}
	if opts.Signer != nil {
		signature, err := opts.Signer(object.CommitSigningPayload(commitObj))
		if err != nil {
			return nil, fmt.Errorf("commit: sign commit: %w", err)
		}
		if strings.ContainsAny(signature, "\n\r") {
			return nil, fmt.Errorf("commit: sign commit: signature spans multiple lines")
		}
		commitObj.Signature = signature
	}

	commitHash, err := object.WriteCommit(r.Store, commitObj)
	if err != nil {
		return nil, fmt.Errorf("commit: write commit: %w", err)
	}

	if err := r.Head.SaveHead(commitHash); err != nil {
		return nil, fmt.Errorf("commit: update HEAD: %w", err)
	}
	r.logger.Debug("created commit",
		zap.String("hash", string(commitHash)),
		zap.String("tree", string(treeHash)),
		zap.String("parent", string(parentHash)),
	)

	return &CommitResult{
		Hash:    commitHash,
		Tree:    treeHash,
		Parent:  parentHash,
		Message: message,
	}, nil
}

func (r *Repo) resolveAuthor(author string) (string, error) {
	if author = strings.TrimSpace(author); author != "" {
		return singleLine(author)
	}
	cfg, err := r.ReadConfig()
	if err != nil {
		return "", err
	}
	if id := cfg.Identity(); id != "" {
		return singleLine(id)
	}
	if user := os.Getenv("USER"); user != "" {
		return singleLine(user)
	}
	return "unknown", nil
}

func singleLine(s string) (string, error) {
	if strings.ContainsAny(s, "\n\r") {
		return "", fmt.Errorf("author %q spans multiple lines", s)
	}
	return s, nil
}
