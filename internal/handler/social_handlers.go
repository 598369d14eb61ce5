package handler

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/lucasnhandang/TheMillionaireGame/internal/model"
	"github.com/lucasnhandang/TheMillionaireGame/internal/protocol"
	"github.com/lucasnhandang/TheMillionaireGame/internal/session"
	"github.com/lucasnhandang/TheMillionaireGame/internal/store"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
	maxChatLength    = 500
)

type leaderboardRow struct {
	Rank                int    `json:"rank"`
	Username            string `json:"username"`
	TotalScore          int    `json:"totalScore"`
	FinalQuestionNumber int    `json:"finalQuestionNumber"`
	HighestPrize        int64  `json:"highestPrize"`
	Winner              bool   `json:"isWinner"`
}

func (rt *Router) handleLeaderboard(req *protocol.Request, s *session.Session) *protocol.Response {
	kind := req.Type
	if kind == "" {
		kind = "global"
	}
	page, limit, ok := pagination(req.Page, req.Limit)
	if !ok {
		return protocol.Error(protocol.CodeValidation, "page and limit must be positive, limit at most 100")
	}

	var (
		entries []model.LeaderboardEntry
		total   int64
		err     error
	)
	switch kind {
	case "global":
		entries, total, err = rt.store.Leaderboard.Global(page, limit)
	case "friend":
		var friends []string
		friends, err = rt.store.Friends.List(s.Username)
		if err != nil {
			return internalError(rt.log, "leaderboard", err)
		}
		friends = append(friends, s.Username)
		entries, total, err = rt.store.Leaderboard.ForUsers(friends, page, limit)
	default:
		return protocol.Error(protocol.CodeValidation, "type must be \"global\" or \"friend\"")
	}
	if err != nil {
		return internalError(rt.log, "leaderboard", err)
	}

	rows := make([]leaderboardRow, 0, len(entries))
	for i, e := range entries {
		rows = append(rows, leaderboardRow{
			Rank:                (page-1)*limit + i + 1,
			Username:            e.Username,
			TotalScore:          e.BestScore,
			FinalQuestionNumber: e.FinalQuestionNumber,
			HighestPrize:        e.HighestPrize,
			Winner:              e.Winner,
		})
	}

	return protocol.OK(map[string]interface{}{
		"type":    kind,
		"page":    page,
		"limit":   limit,
		"total":   total,
		"entries": rows,
	})
}

func (rt *Router) handleFriendStatus(req *protocol.Request, s *session.Session) *protocol.Response {
	if req.FriendUsername == "" {
		return protocol.Error(protocol.CodeBadRequest, "Missing friendUsername")
	}

	friends, err := rt.store.Friends.AreFriends(s.Username, req.FriendUsername)
	if err != nil {
		return internalError(rt.log, "friend_status", err)
	}
	if !friends {
		return protocol.Error(protocol.CodeForbidden, "Not in your friend list")
	}

	return protocol.OK(map[string]string{
		"username": req.FriendUsername,
		"status":   rt.registry.UserStatus(req.FriendUsername),
	})
}

func (rt *Router) handleAddFriend(req *protocol.Request, s *session.Session) *protocol.Response {
	if req.FriendUsername == "" {
		return protocol.Error(protocol.CodeBadRequest, "Missing friendUsername")
	}
	if req.FriendUsername == s.Username {
		return protocol.Error(protocol.CodeValidation, "Cannot add yourself")
	}

	exists, err := rt.store.Users.Exists(req.FriendUsername)
	if err != nil {
		return internalError(rt.log, "add_friend", err)
	}
	if !exists {
		return protocol.Error(protocol.CodeNotFound, "User not found")
	}

	friends, err := rt.store.Friends.AreFriends(s.Username, req.FriendUsername)
	if err != nil {
		return internalError(rt.log, "add_friend", err)
	}
	if friends {
		return protocol.Error(protocol.CodeConflict, "Already friends")
	}

	if err := rt.store.Friends.CreateRequest(s.Username, req.FriendUsername); err != nil {
		if errors.Is(err, store.ErrRequestPending) {
			return protocol.Error(protocol.CodeConflict, "Friend request already sent")
		}
		return internalError(rt.log, "add_friend", err)
	}

	// Nudge the receiver when online, best effort.
	rt.push(req.FriendUsername, map[string]string{
		"type":   "FRIEND_REQUEST",
		"sender": s.Username,
	})

	return protocol.OK(map[string]string{"message": "Friend request sent"})
}

func (rt *Router) handleAcceptFriend(req *protocol.Request, s *session.Session) *protocol.Response {
	if req.FriendUsername == "" {
		return protocol.Error(protocol.CodeBadRequest, "Missing friendUsername")
	}

	if err := rt.store.Friends.Accept(req.FriendUsername, s.Username); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return protocol.Error(protocol.CodeNotFound, "No pending request from that user")
		}
		return internalError(rt.log, "accept_friend", err)
	}

	rt.push(req.FriendUsername, map[string]string{
		"type":     "FRIEND_ACCEPTED",
		"username": s.Username,
	})

	return protocol.OK(map[string]string{"message": "Friend request accepted"})
}

func (rt *Router) handleDeclineFriend(req *protocol.Request, s *session.Session) *protocol.Response {
	if req.FriendUsername == "" {
		return protocol.Error(protocol.CodeBadRequest, "Missing friendUsername")
	}

	if err := rt.store.Friends.Decline(req.FriendUsername, s.Username); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return protocol.Error(protocol.CodeNotFound, "No pending request from that user")
		}
		return internalError(rt.log, "decline_friend", err)
	}
	return protocol.OK(map[string]string{"message": "Friend request declined"})
}

func (rt *Router) handleFriendReqList(req *protocol.Request, s *session.Session) *protocol.Response {
	requests, err := rt.store.Friends.PendingRequests(s.Username)
	if err != nil {
		return internalError(rt.log, "friend_req_list", err)
	}

	type pendingRequest struct {
		Sender string `json:"sender"`
		SentAt string `json:"sentAt"`
	}
	out := make([]pendingRequest, 0, len(requests))
	for _, r := range requests {
		out = append(out, pendingRequest{
			Sender: r.Sender,
			SentAt: r.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return protocol.OK(map[string]interface{}{"requests": out})
}

func (rt *Router) handleDelFriend(req *protocol.Request, s *session.Session) *protocol.Response {
	if req.FriendUsername == "" {
		return protocol.Error(protocol.CodeBadRequest, "Missing friendUsername")
	}

	friends, err := rt.store.Friends.AreFriends(s.Username, req.FriendUsername)
	if err != nil {
		return internalError(rt.log, "del_friend", err)
	}
	if !friends {
		return protocol.Error(protocol.CodeNotFound, "Not in your friend list")
	}

	if err := rt.store.Friends.Delete(s.Username, req.FriendUsername); err != nil {
		return internalError(rt.log, "del_friend", err)
	}
	return protocol.OK(map[string]string{"message": "Friend removed"})
}

func (rt *Router) handleChat(req *protocol.Request, s *session.Session) *protocol.Response {
	if req.Recipient == "" || req.Message == "" {
		return protocol.Error(protocol.CodeBadRequest, "Missing recipient or message")
	}
	if len(req.Message) > maxChatLength {
		return protocol.Error(protocol.CodeValidation, "Message too long, at most 500 characters")
	}

	friends, err := rt.store.Friends.AreFriends(s.Username, req.Recipient)
	if err != nil {
		return internalError(rt.log, "chat", err)
	}
	if !friends {
		return protocol.Error(protocol.CodeForbidden, "You can only chat with friends")
	}

	delivered := rt.push(req.Recipient, map[string]string{
		"type":    "CHAT_MESSAGE",
		"sender":  s.Username,
		"message": req.Message,
		"sentAt":  time.Now().UTC().Format(time.RFC3339),
	})

	if err := rt.store.Chats.Send(&model.ChatMessage{
		Sender:    s.Username,
		Recipient: req.Recipient,
		Content:   req.Message,
		Delivered: delivered,
	}); err != nil {
		rt.log.Warn("chat persist failed",
			zap.String("sender", s.Username), zap.String("recipient", req.Recipient), zap.Error(err))
	}

	return protocol.OK(map[string]interface{}{
		"recipient": req.Recipient,
		"delivered": delivered,
	})
}

// push sends a server-initiated payload to username's live connection.
// Returns false when the user is offline or the pusher is unset.
func (rt *Router) push(username string, data interface{}) bool {
	if rt.pusher == nil {
		return false
	}
	connID, ok := rt.registry.ConnIDOf(username)
	if !ok {
		return false
	}
	return rt.pusher.Push(connID, protocol.OK(data))
}

// pagination normalizes page/limit, rejecting negatives and oversized
// limits. Zero means "use the default".
func pagination(page, limit int) (int, int, bool) {
	if page < 0 || limit < 0 || limit > maxPageLimit {
		return 0, 0, false
	}
	if page == 0 {
		page = 1
	}
	if limit == 0 {
		limit = defaultPageLimit
	}
	return page, limit, true
}
