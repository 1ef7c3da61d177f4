package dynamodb

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"converse-backend/domain/entities"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Entity type discriminants stored on every item.
const (
	entityTypeConversation   = "CONVERSATION"
	entityTypeRelationship   = "CONVERSATION_USER_RELATIONSHIP"
	entityTypeMessage        = "MESSAGE"
	entityTypePendingMessage = "PENDING_MESSAGE"
	entityTypeUser           = "USER"
	entityTypeUniqueProperty = "UNIQUE_PROPERTY"
	entityTypeOrganization   = "ORGANIZATION"
)

// sortTimeLayout is a fixed-width RFC3339 variant so timestamps embedded in
// sort keys order lexicographically. RFC3339Nano trims trailing zeros and
// would break that.
const sortTimeLayout = "2006-01-02T15:04:05.000000000Z"

func formatSortTime(t time.Time) string {
	return t.UTC().Format(sortTimeLayout)
}

func parseSortTime(s string) (time.Time, error) {
	return time.Parse(sortTimeLayout, s)
}

// Sort-key prefixes within a conversation partition.
const (
	messageSKPrefix  = "MESSAGE#"
	repliesGSIPrefix = "REPLIES#"
	uniquePKPrefix   = "UNIQUE#"
)

func messageSK(createdAt time.Time, messageID string) string {
	return messageSKPrefix + formatSortTime(createdAt) + "#" + messageID
}

func gsi2PK(userID string, convType entities.ConversationType) string {
	return userID + "#" + string(convType)
}

func uniquePropertyPK(kind entities.UniquePropertyKind, value string) string {
	return uniquePKPrefix + string(kind) + "#" + value
}

// conversationItem is the DynamoDB item structure for a conversation.
// PK = SK = conversation id.
type conversationItem struct {
	PK             string   `dynamodbav:"PK"`
	SK             string   `dynamodbav:"SK"`
	EntityType     string   `dynamodbav:"EntityType"`
	ID             string   `dynamodbav:"ID"`
	Type           string   `dynamodbav:"Type"`
	CreatedBy      string   `dynamodbav:"CreatedBy"`
	CreatedAt      string   `dynamodbav:"CreatedAt"`
	TeamID         string   `dynamodbav:"TeamID,omitempty"`
	OrganizationID string   `dynamodbav:"OrganizationID,omitempty"`
	Name           string   `dynamodbav:"Name,omitempty"`
	ImageMimeType  string   `dynamodbav:"ImageMimeType,omitempty"`
	DueDate        string   `dynamodbav:"DueDate,omitempty"`
	Outcomes       []string `dynamodbav:"Outcomes,omitempty"`
}

func newConversationItem(c *entities.Conversation) conversationItem {
	item := conversationItem{
		PK:             c.ID,
		SK:             c.ID,
		EntityType:     entityTypeConversation,
		ID:             c.ID,
		Type:           string(c.Type),
		CreatedBy:      c.CreatedBy,
		CreatedAt:      formatSortTime(c.CreatedAt),
		TeamID:         c.TeamID,
		OrganizationID: c.OrganizationID,
		Name:           c.Name,
		ImageMimeType:  c.ImageMimeType,
		Outcomes:       c.Outcomes,
	}
	if c.DueDate != nil {
		item.DueDate = formatSortTime(*c.DueDate)
	}
	return item
}

func (i conversationItem) toEntity() (*entities.Conversation, error) {
	createdAt, err := parseSortTime(i.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid CreatedAt on conversation %s: %w", i.ID, err)
	}
	c := &entities.Conversation{
		ID:             i.ID,
		Type:           entities.ConversationType(i.Type),
		CreatedBy:      i.CreatedBy,
		CreatedAt:      createdAt,
		TeamID:         i.TeamID,
		OrganizationID: i.OrganizationID,
		Name:           i.Name,
		ImageMimeType:  i.ImageMimeType,
		Outcomes:       i.Outcomes,
	}
	if i.DueDate != "" {
		due, err := parseSortTime(i.DueDate)
		if err != nil {
			return nil, fmt.Errorf("invalid DueDate on conversation %s: %w", i.ID, err)
		}
		c.DueDate = &due
	}
	return c, nil
}

// relationshipItem is the denormalized per-(conversation, user) row.
// PK = conversation id, SK = user id. Three GSI projections expose the same
// row by recency (GSI1), by conversation type (GSI2) and, for meetings, by
// due date (GSI3).
type relationshipItem struct {
	PK               string   `dynamodbav:"PK"`
	SK               string   `dynamodbav:"SK"`
	GSI1PK           string   `dynamodbav:"GSI1PK"`
	GSI1SK           string   `dynamodbav:"GSI1SK"`
	GSI2PK           string   `dynamodbav:"GSI2PK"`
	GSI2SK           string   `dynamodbav:"GSI2SK"`
	GSI3PK           string   `dynamodbav:"GSI3PK,omitempty"`
	GSI3SK           string   `dynamodbav:"GSI3SK,omitempty"`
	EntityType       string   `dynamodbav:"EntityType"`
	ConversationID   string   `dynamodbav:"ConversationID"`
	UserID           string   `dynamodbav:"UserID"`
	ConversationType string   `dynamodbav:"ConversationType"`
	Role             string   `dynamodbav:"Role"`
	Muted            bool     `dynamodbav:"Muted"`
	UpdatedAt        string   `dynamodbav:"UpdatedAt"`
	UnreadMessages   []string `dynamodbav:"UnreadMessages,stringset,omitempty"`
	RecentMessageID  string   `dynamodbav:"RecentMessageID,omitempty"`
	DueDate          string   `dynamodbav:"DueDate,omitempty"`
}

func newRelationshipItem(r *entities.ConversationUserRelationship) relationshipItem {
	updatedAt := formatSortTime(r.UpdatedAt)
	item := relationshipItem{
		PK:               r.ConversationID,
		SK:               r.UserID,
		GSI1PK:           r.UserID,
		GSI1SK:           updatedAt,
		GSI2PK:           gsi2PK(r.UserID, r.ConversationType),
		GSI2SK:           updatedAt,
		EntityType:       entityTypeRelationship,
		ConversationID:   r.ConversationID,
		UserID:           r.UserID,
		ConversationType: string(r.ConversationType),
		Role:             string(r.Role),
		Muted:            r.Muted,
		UpdatedAt:        updatedAt,
		UnreadMessages:   r.UnreadMessages,
		RecentMessageID:  r.RecentMessageID,
	}
	if r.DueDate != nil {
		due := formatSortTime(*r.DueDate)
		item.DueDate = due
		item.GSI3PK = gsi2PK(r.UserID, entities.ConversationTypeMeeting)
		item.GSI3SK = due
	}
	return item
}

func (i relationshipItem) toEntity() (*entities.ConversationUserRelationship, error) {
	updatedAt, err := parseSortTime(i.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid UpdatedAt on relationship %s/%s: %w", i.ConversationID, i.UserID, err)
	}
	r := &entities.ConversationUserRelationship{
		ConversationID:   i.ConversationID,
		UserID:           i.UserID,
		ConversationType: entities.ConversationType(i.ConversationType),
		Role:             entities.Role(i.Role),
		Muted:            i.Muted,
		UpdatedAt:        updatedAt,
		UnreadMessages:   i.UnreadMessages,
		RecentMessageID:  i.RecentMessageID,
	}
	if i.DueDate != "" {
		due, err := parseSortTime(i.DueDate)
		if err != nil {
			return nil, fmt.Errorf("invalid DueDate on relationship %s/%s: %w", i.ConversationID, i.UserID, err)
		}
		r.DueDate = &due
	}
	return r, nil
}

// messageItem lives in the conversation partition with a creation-time sort
// key, so messages order totally within a conversation. GSI1 gives direct
// lookup by message id; GSI2 collects a root message's replies.
type messageItem struct {
	PK             string              `dynamodbav:"PK"`
	SK             string              `dynamodbav:"SK"`
	GSI1PK         string              `dynamodbav:"GSI1PK"`
	GSI1SK         string              `dynamodbav:"GSI1SK"`
	GSI2PK         string              `dynamodbav:"GSI2PK,omitempty"`
	GSI2SK         string              `dynamodbav:"GSI2SK,omitempty"`
	EntityType     string              `dynamodbav:"EntityType"`
	ID             string              `dynamodbav:"ID"`
	ConversationID string              `dynamodbav:"ConversationID"`
	From           string              `dynamodbav:"From"`
	CreatedAt      string              `dynamodbav:"CreatedAt"`
	MimeType       string              `dynamodbav:"MimeType"`
	Transcript     string              `dynamodbav:"Transcript,omitempty"`
	Title          string              `dynamodbav:"Title,omitempty"`
	ReplyTo        string              `dynamodbav:"ReplyTo,omitempty"`
	ReplyCount     int                 `dynamodbav:"ReplyCount"`
	SeenAt         map[string]*string  `dynamodbav:"SeenAt"`
	Reactions      map[string][]string `dynamodbav:"Reactions"`
}

// marshalMessageItem marshals a message item, forcing each reaction's member
// list into a DynamoDB string set so ADD/DELETE update expressions apply to
// it. attributevalue would otherwise encode the map values as lists.
func marshalMessageItem(item messageItem) (map[string]types.AttributeValue, error) {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return nil, err
	}
	reactions := make(map[string]types.AttributeValue, len(item.Reactions))
	for name, members := range item.Reactions {
		if len(members) == 0 {
			continue
		}
		reactions[name] = &types.AttributeValueMemberSS{Value: members}
	}
	av["Reactions"] = &types.AttributeValueMemberM{Value: reactions}
	return av, nil
}

func newMessageItem(m *entities.Message) messageItem {
	seenAt := make(map[string]*string, len(m.SeenAt))
	for userID, ts := range m.SeenAt {
		if ts == nil {
			seenAt[userID] = nil
			continue
		}
		s := formatSortTime(*ts)
		seenAt[userID] = &s
	}
	item := messageItem{
		PK:             m.ConversationID,
		SK:             messageSK(m.CreatedAt, m.ID),
		GSI1PK:         m.ID,
		GSI1SK:         entityTypeMessage,
		EntityType:     entityTypeMessage,
		ID:             m.ID,
		ConversationID: m.ConversationID,
		From:           m.From,
		CreatedAt:      formatSortTime(m.CreatedAt),
		MimeType:       m.MimeType,
		Transcript:     m.Transcript,
		Title:          m.Title,
		ReplyTo:        m.ReplyTo,
		ReplyCount:     m.ReplyCount,
		SeenAt:         seenAt,
		Reactions:      m.Reactions,
	}
	if m.ReplyTo != "" {
		item.GSI2PK = repliesGSIPrefix + m.ReplyTo
		item.GSI2SK = item.CreatedAt
	}
	return item
}

func (i messageItem) toEntity() (*entities.Message, error) {
	createdAt, err := parseSortTime(i.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid CreatedAt on message %s: %w", i.ID, err)
	}
	seenAt := make(map[string]*time.Time, len(i.SeenAt))
	for userID, ts := range i.SeenAt {
		if ts == nil {
			seenAt[userID] = nil
			continue
		}
		parsed, err := parseSortTime(*ts)
		if err != nil {
			return nil, fmt.Errorf("invalid SeenAt[%s] on message %s: %w", userID, i.ID, err)
		}
		seenAt[userID] = &parsed
	}
	reactions := i.Reactions
	if reactions == nil {
		reactions = map[string][]string{}
	}
	return &entities.Message{
		ID:             i.ID,
		ConversationID: i.ConversationID,
		From:           i.From,
		CreatedAt:      createdAt,
		MimeType:       i.MimeType,
		Transcript:     i.Transcript,
		Title:          i.Title,
		ReplyTo:        i.ReplyTo,
		ReplyCount:     i.ReplyCount,
		SeenAt:         seenAt,
		Reactions:      reactions,
	}, nil
}

// pendingMessageItem is the upload placeholder. PK = SK = pending id.
type pendingMessageItem struct {
	PK             string `dynamodbav:"PK"`
	SK             string `dynamodbav:"SK"`
	EntityType     string `dynamodbav:"EntityType"`
	ID             string `dynamodbav:"ID"`
	ConversationID string `dynamodbav:"ConversationID"`
	From           string `dynamodbav:"From"`
	MimeType       string `dynamodbav:"MimeType"`
	ReplyTo        string `dynamodbav:"ReplyTo,omitempty"`
	CreatedAt      string `dynamodbav:"CreatedAt"`
}

func newPendingMessageItem(p *entities.PendingMessage) pendingMessageItem {
	return pendingMessageItem{
		PK:             p.ID,
		SK:             p.ID,
		EntityType:     entityTypePendingMessage,
		ID:             p.ID,
		ConversationID: p.ConversationID,
		From:           p.From,
		MimeType:       p.MimeType,
		ReplyTo:        p.ReplyTo,
		CreatedAt:      formatSortTime(p.CreatedAt),
	}
}

func (i pendingMessageItem) toEntity() (*entities.PendingMessage, error) {
	createdAt, err := parseSortTime(i.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid CreatedAt on pending message %s: %w", i.ID, err)
	}
	return &entities.PendingMessage{
		ID:             i.ID,
		ConversationID: i.ConversationID,
		From:           i.From,
		MimeType:       i.MimeType,
		ReplyTo:        i.ReplyTo,
		CreatedAt:      createdAt,
	}, nil
}

// userItem holds a user row. PK = SK = user id.
type userItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	ID         string `dynamodbav:"ID"`
	Email      string `dynamodbav:"Email,omitempty"`
	Username   string `dynamodbav:"Username,omitempty"`
	Phone      string `dynamodbav:"Phone,omitempty"`
	Name       string `dynamodbav:"Name,omitempty"`
	Bio        string `dynamodbav:"Bio,omitempty"`
	CreatedAt  string `dynamodbav:"CreatedAt"`
}

func newUserItem(u *entities.User) userItem {
	return userItem{
		PK:         u.ID,
		SK:         u.ID,
		EntityType: entityTypeUser,
		ID:         u.ID,
		Email:      u.Email,
		Username:   u.Username,
		Phone:      u.Phone,
		Name:       u.Name,
		Bio:        u.Bio,
		CreatedAt:  formatSortTime(u.CreatedAt),
	}
}

func (i userItem) toEntity() (*entities.User, error) {
	createdAt, err := parseSortTime(i.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid CreatedAt on user %s: %w", i.ID, err)
	}
	return &entities.User{
		ID:        i.ID,
		Email:     i.Email,
		Username:  i.Username,
		Phone:     i.Phone,
		Name:      i.Name,
		Bio:       i.Bio,
		CreatedAt: createdAt,
	}, nil
}

// uniquePropertyItem enforces global uniqueness of email/username/phone.
// PK = SK = UNIQUE#<kind>#<value>.
type uniquePropertyItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	Kind       string `dynamodbav:"Kind"`
	Value      string `dynamodbav:"Value"`
	UserID     string `dynamodbav:"UserID"`
}

func newUniquePropertyItem(p entities.UniqueProperty) uniquePropertyItem {
	pk := uniquePropertyPK(p.Kind, p.Value)
	return uniquePropertyItem{
		PK:         pk,
		SK:         pk,
		EntityType: entityTypeUniqueProperty,
		Kind:       string(p.Kind),
		Value:      p.Value,
		UserID:     p.UserID,
	}
}

// organizationItem holds an organization row. PK = SK = organization id.
type organizationItem struct {
	PK          string `dynamodbav:"PK"`
	SK          string `dynamodbav:"SK"`
	EntityType  string `dynamodbav:"EntityType"`
	ID          string `dynamodbav:"ID"`
	Name        string `dynamodbav:"Name"`
	CreatedBy   string `dynamodbav:"CreatedBy,omitempty"`
	BillingPlan string `dynamodbav:"BillingPlan"`
	CreatedAt   string `dynamodbav:"CreatedAt"`
}

func newOrganizationItem(o *entities.Organization) organizationItem {
	return organizationItem{
		PK:          o.ID,
		SK:          o.ID,
		EntityType:  entityTypeOrganization,
		ID:          o.ID,
		Name:        o.Name,
		CreatedBy:   o.CreatedBy,
		BillingPlan: string(o.BillingPlan),
		CreatedAt:   formatSortTime(o.CreatedAt),
	}
}

func (i organizationItem) toEntity() (*entities.Organization, error) {
	createdAt, err := parseSortTime(i.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid CreatedAt on organization %s: %w", i.ID, err)
	}
	return &entities.Organization{
		ID:          i.ID,
		Name:        i.Name,
		CreatedBy:   i.CreatedBy,
		BillingPlan: entities.BillingPlan(i.BillingPlan),
		CreatedAt:   createdAt,
	}, nil
}

// Cursor helpers. LastEvaluatedKey maps for this table only ever contain
// string attribute values, so the cursor is base64 over a flat JSON object.

func encodeCursor(key map[string]types.AttributeValue) (string, error) {
	if len(key) == 0 {
		return "", nil
	}
	flat := make(map[string]string, len(key))
	for name, value := range key {
		s, ok := value.(*types.AttributeValueMemberS)
		if !ok {
			return "", fmt.Errorf("unexpected non-string key attribute %q", name)
		}
		flat[name] = s.Value
	}
	raw, err := json.Marshal(flat)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

func decodeCursor(cursor string) (map[string]types.AttributeValue, error) {
	if cursor == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return nil, fmt.Errorf("malformed pagination cursor: %w", err)
	}
	var flat map[string]string
	if err := json.Unmarshal(raw, &flat); err != nil {
		return nil, fmt.Errorf("malformed pagination cursor: %w", err)
	}
	key := make(map[string]types.AttributeValue, len(flat))
	for name, value := range flat {
		key[name] = &types.AttributeValueMemberS{Value: value}
	}
	return key, nil
}
