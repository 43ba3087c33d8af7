package game

// Bundled reference game used by the demo binary and tests. Tic-tac-toe is
// small, terminates within nine plies and can end in a draw, which exercises
// every Result the coordinator cares about. The coordination core never
// depends on it.

type TTTMove int // board index, row-major 0..8

type TicTacToe struct {
	board  [9]int // 0 empty, 1 first player, 2 second player
	player int
	moves  int
}

func NewTicTacToe() *TicTacToe {
	return &TicTacToe{player: 1}
}

func (t *TicTacToe) Player() int { return t.player }

func (t *TicTacToe) LegalMoves() []Move {
	if t.Over() {
		return nil
	}
	var moves []Move
	for i, cell := range t.board {
		if cell == 0 {
			moves = append(moves, TTTMove(i))
		}
	}
	return moves
}

func (t *TicTacToe) Legal(m Move) bool {
	mv, ok := m.(TTTMove)
	if !ok || mv < 0 || mv > 8 {
		return false
	}
	return !t.Over() && t.board[mv] == 0
}

func (t *TicTacToe) Play(m Move) State {
	mv := m.(TTTMove)
	next := *t
	next.board[mv] = t.player
	next.moves++
	next.player = 3 - t.player
	return &next
}

var lines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8}, // rows
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8}, // columns
	{0, 4, 8}, {2, 4, 6}, // diagonals
}

func (t *TicTacToe) winner() int {
	for _, l := range lines {
		if t.board[l[0]] != 0 && t.board[l[0]] == t.board[l[1]] && t.board[l[1]] == t.board[l[2]] {
			return t.board[l[0]]
		}
	}
	return 0
}

func (t *TicTacToe) Over() bool {
	return t.winner() != 0 || t.moves == 9
}

func (t *TicTacToe) Result() Result {
	switch t.winner() {
	case 1:
		return FirstPlayerWin
	case 2:
		return SecondPlayerWin
	default:
		return Draw
	}
}
