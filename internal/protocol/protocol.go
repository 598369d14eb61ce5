// Package protocol defines the newline-delimited JSON wire format:
// one request per line from the client, one response per line back.
package protocol

import "encoding/json"

// Request types.
const (
	TypeLogin      = "LOGIN"
	TypeRegister   = "REGISTER"
	TypeLogout     = "LOGOUT"
	TypePing       = "PING"
	TypeConnection = "CONNECTION"

	TypeStart     = "START"
	TypeAnswer    = "ANSWER"
	TypeLifeline  = "LIFELINE"
	TypeGiveUp    = "GIVE_UP"
	TypeResume    = "RESUME"
	TypeLeaveGame = "LEAVE_GAME"

	TypeLeaderboard   = "LEADERBOARD"
	TypeFriendStatus  = "FRIEND_STATUS"
	TypeAddFriend     = "ADD_FRIEND"
	TypeAcceptFriend  = "ACCEPT_FRIEND"
	TypeDeclineFriend = "DECLINE_FRIEND"
	TypeFriendReqList = "FRIEND_REQ_LIST"
	TypeDelFriend     = "DEL_FRIEND"
	TypeChat          = "CHAT"

	TypeUserInfo    = "USER_INFO"
	TypeViewHistory = "VIEW_HISTORY"
	TypeChangePass  = "CHANGE_PASS"

	TypeAddQues    = "ADD_QUES"
	TypeChangeQues = "CHANGE_QUES"
	TypeViewQues   = "VIEW_QUES"
	TypeDelQues    = "DEL_QUES"
	TypeBanUser    = "BAN_USER"
)

// Response codes. Domain status values, not literal HTTP.
const (
	CodeOK               = 200
	CodeCreated          = 201
	CodeBadRequest       = 400
	CodeWrongCredentials = 401
	CodeUnauthenticated  = 402
	CodeForbidden        = 403
	CodeNotFound         = 404
	CodeAlreadyInGame    = 405
	CodeNotInGame        = 406
	CodeLifelineUsed     = 407
	CodeTimeout          = 408
	CodeConflict         = 409
	CodeWeakPassword     = 410
	CodePrecondition     = 412
	CodeUnknownType      = 415
	CodeValidation       = 422
	CodeRateLimited      = 429
	CodeInternal         = 500
)

// Request is the decoded envelope for every client message. Fields beyond
// RequestType and AuthToken are populated per request type.
type Request struct {
	RequestType string `json:"requestType"`
	AuthToken   string `json:"authToken,omitempty"`

	// Auth / account
	Username    string `json:"username,omitempty"`
	Password    string `json:"password,omitempty"`
	OldPassword string `json:"oldPassword,omitempty"`
	NewPassword string `json:"newPassword,omitempty"`

	// Game
	OverrideSavedGame bool   `json:"overrideSavedGame,omitempty"`
	GameID            int    `json:"gameId,omitempty"`
	QuestionNumber    int    `json:"questionNumber,omitempty"`
	AnswerIndex       *int   `json:"answerIndex,omitempty"` // pointer: 0 is a valid answer
	LifelineType      string `json:"lifelineType,omitempty"`

	// Social
	Type           string `json:"type,omitempty"`
	Page           int    `json:"page,omitempty"`
	Limit          int    `json:"limit,omitempty"`
	FriendUsername string `json:"friendUsername,omitempty"`
	Recipient      string `json:"recipient,omitempty"`
	Message        string `json:"message,omitempty"`

	// Admin question CRUD
	QuestionID    int      `json:"questionId,omitempty"`
	Question      string   `json:"question,omitempty"`
	Options       []string `json:"options,omitempty"`
	CorrectAnswer *int     `json:"correctAnswer,omitempty"`
	Level         *int     `json:"level,omitempty"`
	Reason        string   `json:"reason,omitempty"`
}

// Response is the envelope for every server message. Success carries Data,
// errors carry Message; both may appear (e.g. a timeout loss with payout).
type Response struct {
	ResponseCode int         `json:"responseCode"`
	Data         interface{} `json:"data,omitempty"`
	Message      string      `json:"message,omitempty"`
}

func OK(data interface{}) *Response {
	return &Response{ResponseCode: CodeOK, Data: data}
}

func Created(data interface{}) *Response {
	return &Response{ResponseCode: CodeCreated, Data: data}
}

func Error(code int, message string) *Response {
	return &Response{ResponseCode: code, Message: message}
}

func Decode(line string) (*Request, error) {
	var req Request
	if err := json.Unmarshal([]byte(line), &req); err != nil {
		return nil, err
	}
	return &req, nil
}

func Encode(resp *Response) (string, error) {
	b, err := json.Marshal(resp)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
