// Package present holds the user-facing wording shared by the console and
// web front ends.
package present

import (
    "fmt"

    "github.com/jaminalder/triki/internal/ai"
    "github.com/jaminalder/triki/internal/domain"
    "github.com/jaminalder/triki/internal/session"
)

const Thinking = "The computer is thinking... 🤔"

func DifficultyName(d ai.Difficulty) string {
    switch d {
    case ai.Easy:
        return "Easy"
    case ai.Medium:
        return "Medium"
    case ai.Hard:
        return "Hard"
    }
    return ""
}

func DifficultyHint(d ai.Difficulty) string {
    switch d {
    case ai.Easy:
        return "random moves"
    case ai.Medium:
        return "blocks and attacks"
    case ai.Hard:
        return "unbeatable minimax"
    }
    return ""
}

// ModeName describes the bound mode, including the difficulty against the computer.
func ModeName(s session.Snapshot) string {
    switch s.Mode {
    case session.TwoHuman:
        return "Two players"
    case session.HumanVsAI:
        if s.Difficulty == 0 {
            return "Vs computer"
        }
        return fmt.Sprintf("Vs computer (%s)", DifficultyName(s.Difficulty))
    }
    return ""
}

// Result is the end-of-game message, empty while the game is on.
func Result(s session.Snapshot) string {
    switch s.Outcome {
    case domain.Draw:
        return "It's a draw! 🤝"
    case domain.Win:
        if s.Mode == session.HumanVsAI {
            if s.Winner == s.AIMark() {
                return "The computer has won! 🤖"
            }
            return "Congratulations! You won! 🎉"
        }
        return fmt.Sprintf("Player %s has won! 🎉", s.Winner)
    }
    return ""
}

// Status is the one-line status for the current state.
func Status(s session.Snapshot) string {
    switch s.State {
    case session.ModeSelect:
        return "Choose a game mode"
    case session.DifficultySelect:
        return "Choose the difficulty"
    case session.Terminal:
        return Result(s)
    }
    if s.AIPending {
        return Thinking
    }
    return fmt.Sprintf("Player %s to move", s.Active)
}
