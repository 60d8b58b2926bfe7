// Package mcptools exposes Motus games as MCP tools so an agent can play
// over stdio. Every tool answers with a plain-text rendering of the board.
package mcptools

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"unicode"
	"unicode/utf8"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/motus/internal/game"
	"github.com/robalobadob/motus/internal/store"
)

// WordsFunc supplies the word list for new games.
type WordsFunc func(ctx context.Context) ([]string, error)

// Tools owns the MCP server and the games it created.
type Tools struct {
	store  store.Store
	words  WordsFunc
	engine []game.Option
	nextID atomic.Int64
	srv    *server.MCPServer
}

// New builds the MCP server. engineOpts are applied to every new game.
func New(st store.Store, words WordsFunc, version string, engineOpts ...game.Option) *Tools {
	t := &Tools{store: st, words: words, engine: engineOpts}
	t.srv = server.NewMCPServer(
		"Motus",
		version,
		server.WithToolCapabilities(true),
		server.WithInstructions(`Motus - MCP Interface

Guess the hidden word. The first letter is given; type the remaining letters
of the row, then submit. On the board [X] is a well placed letter, (X) is in
the word but elsewhere, and a plain letter is absent. Submitting a word that
is not in the dictionary, or missing on the last row, loses the game.

AVAILABLE TOOLS:
- new_game: start a game and get its game_id
- game_state: show the board
- submit_letter / submit_letters: type into the current row
- delete_letter: erase the last typed letter
- submit_word: validate the full row
- reset_game: start over with a new word`),
	)
	t.registerTools()
	return t
}

// Server returns the MCP server for ServeStdio.
func (t *Tools) Server() *server.MCPServer { return t.srv }

// ServeStdio serves the tools on stdin/stdout until EOF.
func (t *Tools) ServeStdio() error { return server.ServeStdio(t.srv) }

func gameIDSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Game ID returned by new_game",
	}
}

func (t *Tools) registerTools() {
	t.srv.AddTool(mcp.Tool{
		Name:        "new_game",
		Description: "Start a new game with a random word",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, t.handleNewGame)

	t.srv.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Show the board of a game",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"game_id": gameIDSchema()},
			Required:   []string{"game_id"},
		},
	}, t.handleGameState)

	t.srv.AddTool(mcp.Tool{
		Name:        "submit_letter",
		Description: "Type one letter into the current row",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_id": gameIDSchema(),
				"letter": map[string]interface{}{
					"type":        "string",
					"description": "A single letter",
				},
			},
			Required: []string{"game_id", "letter"},
		},
	}, t.handleSubmitLetter)

	t.srv.AddTool(mcp.Tool{
		Name:        "submit_letters",
		Description: "Type several letters in order, e.g. the rest of a word after its first letter",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_id": gameIDSchema(),
				"letters": map[string]interface{}{
					"type":        "string",
					"description": "Letters to type, in order",
				},
			},
			Required: []string{"game_id", "letters"},
		},
	}, t.handleSubmitLetters)

	t.srv.AddTool(mcp.Tool{
		Name:        "delete_letter",
		Description: "Erase the last typed letter",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"game_id": gameIDSchema()},
			Required:   []string{"game_id"},
		},
	}, t.intent(func(e *game.Engine) { e.DeleteLastLetter() }))

	t.srv.AddTool(mcp.Tool{
		Name:        "submit_word",
		Description: "Validate the current row once it is full",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"game_id": gameIDSchema()},
			Required:   []string{"game_id"},
		},
	}, t.intent(func(e *game.Engine) { e.SubmitWord() }))

	t.srv.AddTool(mcp.Tool{
		Name:        "reset_game",
		Description: "Start the game over with a new word",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"game_id": gameIDSchema()},
			Required:   []string{"game_id"},
		},
	}, t.intent(func(e *game.Engine) { e.ResetGame() }))
}

func (t *Tools) handleNewGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := t.words(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("word list unavailable: %v", err)), nil
	}

	g := store.NewGame(fmt.Sprintf("game-%d", t.nextID.Add(1)), store.ModeNormal, game.New(t.engine...))
	_, s := g.Apply(func(e *game.Engine) { e.StartNewGame(list) })
	if err := t.store.Save(ctx, g); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	log.Debug().Str("gameId", g.ID).Msg("mcp game created")
	return mcp.NewToolResultText(render(g.ID, s)), nil
}

func (t *Tools) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	g, errRes := t.lookup(ctx, request)
	if errRes != nil {
		return errRes, nil
	}
	return mcp.NewToolResultText(render(g.ID, g.Snapshot())), nil
}

func (t *Tools) handleSubmitLetter(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})
	raw, _ := args["letter"].(string)
	if utf8.RuneCountInString(raw) != 1 || !unicode.IsLetter([]rune(raw)[0]) {
		return mcp.NewToolResultError("letter must be exactly one letter"), nil
	}
	r := unicode.ToLower([]rune(raw)[0])
	return t.intent(func(e *game.Engine) { e.SubmitLetter(r) })(ctx, request)
}

func (t *Tools) handleSubmitLetters(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})
	raw, _ := args["letters"].(string)
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return mcp.NewToolResultError("letters must not be empty"), nil
	}
	for _, r := range raw {
		if !unicode.IsLetter(r) {
			return mcp.NewToolResultError(fmt.Sprintf("%q is not a letter", r)), nil
		}
	}
	return t.intent(func(e *game.Engine) {
		for _, r := range strings.ToLower(raw) {
			e.SubmitLetter(r)
		}
	})(ctx, request)
}

// intent returns a handler applying fn to the game named by game_id.
func (t *Tools) intent(fn func(*game.Engine)) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		g, errRes := t.lookup(ctx, request)
		if errRes != nil {
			return errRes, nil
		}
		_, s := g.Apply(fn)
		return mcp.NewToolResultText(render(g.ID, s)), nil
	}
}

func (t *Tools) lookup(ctx context.Context, request mcp.CallToolRequest) (*store.Game, *mcp.CallToolResult) {
	args, _ := request.Params.Arguments.(map[string]interface{})
	id, _ := args["game_id"].(string)
	if id == "" {
		return nil, mcp.NewToolResultError("game_id is required")
	}
	g, err := t.store.Get(ctx, id)
	if err != nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("game %s: %v", id, err))
	}
	return g, nil
}

func render(id string, s game.Session) string {
	return fmt.Sprintf("game_id: %s\n%s", id, game.Format(s))
}
