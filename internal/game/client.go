package game

import "log"

func (client *Client) sendWelcome() {
	welcomeMsg := WelcomeMsg{
		Type:     MsgTypeWelcome,
		PlayerID: client.ID,
		Team:     client.Team,
	}

	data, err := encodeMessage(welcomeMsg)
	if err != nil {
		log.Printf("Error encoding welcome message: %v", err)
		return
	}

	select {
	case client.Send <- data:
	default:
		// Channel full, skip
		log.Printf("Could not send welcome message to client %d", client.ID)
	}
}

func (client *Client) sendAck(command string, baseID int, ok bool, reason string) {
	ack := AckMsg{
		Type:    MsgTypeAck,
		Command: command,
		BaseID:  baseID,
		OK:      ok,
		Reason:  reason,
	}

	data, err := encodeMessage(ack)
	if err != nil {
		log.Printf("Error encoding ack message: %v", err)
		return
	}

	select {
	case client.Send <- data:
	default:
		log.Printf("Could not send ack to client %d", client.ID)
	}
}

func (client *Client) sendError(message string) {
	data, err := encodeMessage(ErrorMsg{Type: MsgTypeError, Message: message})
	if err != nil {
		log.Printf("Error encoding error message: %v", err)
		return
	}

	select {
	case client.Send <- data:
	default:
		log.Printf("Could not send error to client %d", client.ID)
	}
}

func (client *Client) sendMap(starmap *Starmap) {
	msg := MapMsg{
		Type:        MsgTypeMap,
		Nodes:       starmap.Nodes,
		Fingerprint: starmap.Fingerprint(),
	}

	data, err := encodeMessage(msg)
	if err != nil {
		log.Printf("Error encoding map message: %v", err)
		return
	}

	select {
	case client.Send <- data:
	default:
		log.Printf("Could not send map to client %d", client.ID)
	}
}
