package models

import (
	"database/sql"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// SecurityQuestion is one of the fixed recovery questions.
type SecurityQuestion struct {
	ID           int64  `json:"id"`
	QuestionText string `json:"question_text"`
}

// SecurityAnswer pairs a question id with a plaintext answer, as submitted
// by the client at enrollment or verification time.
type SecurityAnswer struct {
	QuestionID int64  `json:"question_id"`
	Answer     string `json:"answer"`
}

// SecurityService handles security-question enrollment and verification for
// password recovery.
type SecurityService struct {
	DB *sql.DB
}

func NewSecurityService(db *sql.DB) *SecurityService {
	return &SecurityService{DB: db}
}

// ListQuestions returns the full question catalogue.
func (ss *SecurityService) ListQuestions() ([]SecurityQuestion, error) {
	rows, err := ss.DB.Query(`SELECT id, question_text FROM security_questions ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []SecurityQuestion
	for rows.Next() {
		var q SecurityQuestion
		if err := rows.Scan(&q.ID, &q.QuestionText); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// QuestionsForUser returns the questions the user enrolled answers for.
func (ss *SecurityService) QuestionsForUser(userID int64) ([]SecurityQuestion, error) {
	rows, err := ss.DB.Query(`
		SELECT sq.id, sq.question_text
		FROM user_security_answers usa
		JOIN security_questions sq ON sq.id = usa.question_id
		WHERE usa.user_id = ?
		ORDER BY sq.id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []SecurityQuestion
	for rows.Next() {
		var q SecurityQuestion
		if err := rows.Scan(&q.ID, &q.QuestionText); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// SetAnswers replaces the user's enrolled answers. Answers are hashed over
// their lowercased text so verification is case-insensitive.
func (ss *SecurityService) SetAnswers(userID int64, answers []SecurityAnswer) error {
	tx, err := ss.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM user_security_answers WHERE user_id = ?`, userID); err != nil {
		return err
	}

	for _, a := range answers {
		hash, err := bcrypt.GenerateFromPassword([]byte(normalizeAnswer(a.Answer)), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		_, err = tx.Exec(`
			INSERT INTO user_security_answers (user_id, question_id, answer_hash)
			VALUES (?, ?, ?)
		`, userID, a.QuestionID, string(hash))
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// VerifyAnswers checks the submitted answers against the stored hashes.
// Every enrolled question must be answered and every answer must match.
func (ss *SecurityService) VerifyAnswers(userID int64, answers []SecurityAnswer) (bool, error) {
	enrolled, err := ss.answerHashes(userID)
	if err != nil {
		return false, err
	}
	if len(enrolled) == 0 || len(answers) != len(enrolled) {
		return false, nil
	}

	for _, a := range answers {
		hash, ok := enrolled[a.QuestionID]
		if !ok {
			return false, nil
		}
		if bcrypt.CompareHashAndPassword([]byte(hash), []byte(normalizeAnswer(a.Answer))) != nil {
			return false, nil
		}
	}
	return true, nil
}

func (ss *SecurityService) answerHashes(userID int64) (map[int64]string, error) {
	rows, err := ss.DB.Query(`SELECT question_id, answer_hash FROM user_security_answers WHERE user_id = ?`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	hashes := make(map[int64]string)
	for rows.Next() {
		var questionID int64
		var hash string
		if err := rows.Scan(&questionID, &hash); err != nil {
			return nil, err
		}
		hashes[questionID] = hash
	}
	return hashes, rows.Err()
}

func normalizeAnswer(answer string) string {
	return strings.ToLower(strings.TrimSpace(answer))
}
